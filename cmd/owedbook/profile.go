package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gyeh/owedbook/internal/exitcode"
	"github.com/gyeh/owedbook/internal/model"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the pharmacy profile printed on reports",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the pharmacy profile as YAML",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile fields from flags or a YAML file",
	Args:  cobra.NoArgs,
	RunE:  runProfileSet,
}

var (
	profileFile string
	profileIn   model.PharmacyProfile
)

func init() {
	f := profileSetCmd.Flags()
	f.StringVar(&profileFile, "file", "", "YAML file replacing the whole profile")
	f.StringVar(&profileIn.Name, "name", "", "Pharmacy name")
	f.StringVar(&profileIn.Address, "address", "", "Street address")
	f.StringVar(&profileIn.Phone, "phone", "", "Phone")
	f.StringVar(&profileIn.Fax, "fax", "", "Fax")
	f.StringVar(&profileIn.Email, "email", "", "Email shown on reports")
	f.StringVar(&profileIn.NCPDP, "ncpdp", "", "NCPDP id")
	f.StringVar(&profileIn.NPI, "npi", "", "NPI")
	f.StringVar(&profileIn.ContactPerson, "contact", "", "Contact person")
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	log := setupLog()
	ctx := context.Background()

	pool, st := connect(ctx, log)
	defer pool.Close()

	p, err := st.Profile(ctx)
	if err != nil {
		fail(log, exitcode.DBConnError, err, "load profile failed")
	}
	return yaml.NewEncoder(os.Stdout).Encode(p)
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	log := setupLog()
	ctx := context.Background()

	pool, st := connect(ctx, log)
	defer pool.Close()

	var p model.PharmacyProfile
	if profileFile != "" {
		data, err := os.ReadFile(profileFile)
		if err != nil {
			fail(log, exitcode.UsageError, err, "read profile file")
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			fail(log, exitcode.UsageError, err, "parse profile file")
		}
	} else {
		cur, err := st.Profile(ctx)
		if err != nil {
			fail(log, exitcode.DBConnError, err, "load profile failed")
		}
		p = cur
	}

	fl := cmd.Flags()
	for name, dst := range map[string]*string{
		"name": &p.Name, "address": &p.Address, "phone": &p.Phone, "fax": &p.Fax,
		"email": &p.Email, "ncpdp": &p.NCPDP, "npi": &p.NPI, "contact": &p.ContactPerson,
	} {
		if fl.Changed(name) {
			v, _ := fl.GetString(name)
			*dst = v
		}
	}

	if err := st.SetProfile(ctx, p); err != nil {
		fail(log, exitcode.DBConnError, err, "save profile failed")
	}
	log.Info().Str("pharmacy", p.Name).Msg("profile saved")
	return yaml.NewEncoder(os.Stdout).Encode(p)
}
