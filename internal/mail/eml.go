// Package mail composes RFC 5322 draft messages with file attachments.
package mail

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"time"
)

// ErrNoRecipient is returned when a message has no To address.
var ErrNoRecipient = errors.New("no recipient address")

// Message is a draft to compose.
type Message struct {
	From        string
	To          string
	Subject     string
	Body        string
	Attachments []string // file paths; missing files are skipped
}

// Result reports where the draft went and a status line for the caller.
// Attached holds the attachment paths that made it into the draft, in the
// order given.
type Result struct {
	Path     string
	Attached []string
	Status   string
}

// EMLComposer writes drafts as .eml files into Dir.
type EMLComposer struct {
	Dir string
	Now func() time.Time
}

const base64LineLen = 76

// Compose writes msg to Dir/draft_<YYYYmmdd_HHMMSS>.eml.
func (c EMLComposer) Compose(msg Message) (Result, error) {
	if msg.To == "" {
		return Result{Status: "No PBM email to send to."}, ErrNoRecipient
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	ts := now()

	var buf bytes.Buffer
	attached, err := render(&buf, msg, ts)
	if err != nil {
		return Result{Status: "Failed to compose draft."}, err
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return Result{Status: "Failed to create draft directory."}, fmt.Errorf("create draft dir: %w", err)
	}
	path := filepath.Join(c.Dir, "draft_"+ts.Format("20060102_150405")+".eml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return Result{Status: "Failed to write draft."}, fmt.Errorf("write draft: %w", err)
	}
	return Result{
		Path:     path,
		Attached: attached,
		Status:   fmt.Sprintf("Saved .eml draft with %d attachment(s) to %s.", len(attached), path),
	}, nil
}

func render(buf *bytes.Buffer, msg Message, ts time.Time) ([]string, error) {
	mw := multipart.NewWriter(buf)

	fmt.Fprintf(buf, "From: %s\r\n", msg.From)
	fmt.Fprintf(buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(buf, "Date: %s\r\n", ts.Format(time.RFC1123Z))
	fmt.Fprintf(buf, "X-Unsent: 1\r\n")
	fmt.Fprintf(buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := body.Write([]byte(msg.Body + "\r\n")); err != nil {
		return nil, err
	}

	var attached []string
	for _, path := range msg.Attachments {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		name := filepath.Base(path)
		ctype := mime.TypeByExtension(filepath.Ext(name))
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(ctype, map[string]string{"name": name})},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": name})},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, data); err != nil {
			return nil, err
		}
		attached = append(attached, path)
	}
	return attached, mw.Close()
}

func writeBase64(w interface{ Write([]byte) (int, error) }, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 0 {
		n := base64LineLen
		if n > len(enc) {
			n = len(enc)
		}
		if _, err := w.Write([]byte(enc[:n] + "\r\n")); err != nil {
			return err
		}
		enc = enc[n:]
	}
	return nil
}
