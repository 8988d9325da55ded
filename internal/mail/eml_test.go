package mail

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestComposeWritesDraft(t *testing.T) {
	dir := t.TempDir()
	att := filepath.Join(dir, "report_commercialdollars_ESI_2024-03-01_2024-03-31.xlsx")
	if err := os.WriteFile(att, []byte("workbook-bytes"), 0o644); err != nil {
		t.Fatalf("write attachment: %v", err)
	}

	c := EMLComposer{Dir: dir, Now: func() time.Time { return time.Date(2024, 4, 2, 9, 30, 5, 0, time.UTC) }}
	res, err := c.Compose(Message{
		From:        "Pharmacy Owedbook <noreply@example.com>",
		To:          "esi@example.com",
		Subject:     "Express Scripts Commercial Dollars Report 2024-03-01 to 2024-03-31",
		Body:        "Hello Express Scripts,",
		Attachments: []string{att, filepath.Join(dir, "gone.xlsx")},
	})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if filepath.Base(res.Path) != "draft_20240402_093005.eml" {
		t.Errorf("unexpected draft name %s", res.Path)
	}
	if diff := cmp.Diff([]string{att}, res.Attached); diff != "" {
		t.Errorf("attached mismatch (-want +got):\n%s", diff)
	}

	f, err := os.Open(res.Path)
	if err != nil {
		t.Fatalf("open draft: %v", err)
	}
	defer f.Close()
	msg, err := mail.ReadMessage(f)
	if err != nil {
		t.Fatalf("parse draft: %v", err)
	}
	if got := msg.Header.Get("To"); got != "esi@example.com" {
		t.Errorf("expected To esi@example.com, got %q", got)
	}
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	if err != nil || !strings.HasPrefix(subject, "Express Scripts Commercial Dollars Report") {
		t.Errorf("unexpected subject %q (%v)", subject, err)
	}

	_, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		t.Fatalf("content type: %v", err)
	}
	mr := multipart.NewReader(msg.Body, params["boundary"])
	var names []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		if fn := p.FileName(); fn != "" {
			names = append(names, fn)
		}
	}
	if len(names) != 1 || names[0] != filepath.Base(att) {
		t.Errorf("unexpected attachments %v", names)
	}
}

func TestComposeNoRecipient(t *testing.T) {
	_, err := EMLComposer{Dir: t.TempDir()}.Compose(Message{Subject: "x"})
	if !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
}
