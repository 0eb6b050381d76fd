// Package main provides a CLI for generating and checking IBANs offline and
// for minting dev tokens for the ibanmanager API.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ibanmanager/internal/iban/generation"
	"ibanmanager/internal/iban/models"
	"ibanmanager/internal/iban/validation"
	"ibanmanager/pkg/platform/middleware/auth"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey   = "dev-secret-key-change-in-production"
	defaultTokenTTL = 15 * time.Minute
)

type generateOutput struct {
	IBAN      string `json:"iban"`
	Formatted string `json:"formatted"`
	Country   string `json:"country_code"`
}

type tokenOutput struct {
	Token     string `json:"token"`
	Subject   string `json:"subject"`
	ExpiresIn string `json:"expires_in"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "generate":
		err = runGenerate(args[1:], stdout, stderr)
	case "validate":
		err = runValidate(args[1:], stdout, stderr)
	case "token":
		err = runToken(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInvalid):
		return 1
	case errors.Is(err, flag.ErrHelp):
		return 0
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// errInvalid marks a completed check whose verdict was negative.
var errInvalid = errors.New("invalid")

func runGenerate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	country := fs.String("country", "", "Country code (AE, DE, ES)")
	bank := fs.String("bank", "", "Bank code")
	branch := fs.String("branch", "", "Branch code (ES only)")
	account := fs.String("account", "", "Internal account number")
	asJSON := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	code, err := models.ParseCountryCode(*country)
	if err != nil {
		return err
	}
	value, err := generation.New().Generate(generation.Components{
		CountryCode:   code.Code(),
		BankCode:      *bank,
		BranchCode:    *branch,
		AccountNumber: *account,
	})
	if err != nil {
		return err
	}
	if expected := generation.ExpectedLength(code.Code()); len(value) != expected {
		return fmt.Errorf("generated IBAN has length %d, expected %d; check field lengths", len(value), expected)
	}

	if *asJSON {
		return printJSON(stdout, generateOutput{
			IBAN:      value,
			Formatted: validation.FormatForDisplay(value),
			Country:   code.Code(),
		})
	}
	fmt.Fprintln(stdout, value)
	fmt.Fprintln(stdout, validation.FormatForDisplay(value))
	return nil
}

func runValidate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	country := fs.String("country", "", "Expected country code (optional)")
	asJSON := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("validate requires an IBAN argument")
	}

	res := validation.New().Validate(strings.Join(fs.Args(), ""), *country)
	if *asJSON {
		if err := printJSON(stdout, res); err != nil {
			return err
		}
	} else if res.Valid {
		fmt.Fprintf(stdout, "%s is valid\n", validation.FormatForDisplay(res.IBAN))
	} else {
		fmt.Fprintf(stdout, "%s is invalid\n", res.IBAN)
		for _, msg := range res.Errors {
			fmt.Fprintf(stdout, "  - %s\n", msg)
		}
	}
	if !res.Valid {
		return errInvalid
	}
	return nil
}

func runToken(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	subject := fs.String("sub", "dev-operator", "Subject recorded as the acting user")
	key := fs.String("key", "", "Signing key. Defaults to JWT_SIGNING_KEY or the dev key.")
	ttl := fs.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	asJSON := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	signingKey := *key
	if signingKey == "" {
		signingKey = os.Getenv("JWT_SIGNING_KEY")
	}
	if signingKey == "" {
		signingKey = devSigningKey
	}

	signer, err := auth.NewHS256(signingKey)
	if err != nil {
		return err
	}
	token, err := signer.Issue(*subject, nil, *ttl, time.Now())
	if err != nil {
		return err
	}

	if *asJSON {
		return printJSON(stdout, tokenOutput{Token: token, Subject: *subject, ExpiresIn: ttl.String()})
	}
	fmt.Fprintln(stdout, token)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `ibangen - generate and check IBANs offline

Usage:
  ibangen <command> [flags]

Commands:
  generate  Build an IBAN from its components
  validate  Check an IBAN's format, length and check digits
  token     Mint a dev bearer token for the API

Examples:
  ibangen generate -country DE -bank 37040044 -account 0532013000
  ibangen generate -country ES -bank 2100 -branch 0418 -account 0200051332 -json
  ibangen validate -country ES ES91 2100 0418 4502 0005 1332
  ibangen token -sub alice -ttl 1h

Use "ibangen <command> -h" for more information about a command.`)
}
