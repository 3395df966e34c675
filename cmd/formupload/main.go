// Package main is the entry point for the Alexander form upload CLI.
// It builds signed S3 POST upload forms and checks submitted ones.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/prn-tf/alexander-formupload/internal/connection"
	"github.com/prn-tf/alexander-formupload/internal/domain"
	"github.com/prn-tf/alexander-formupload/internal/form"
	"github.com/prn-tf/alexander-formupload/internal/resource"
	"github.com/prn-tf/alexander-formupload/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx := context.Background()
	command, args := os.Args[1], os.Args[2:]

	var err error
	switch command {
	case "form":
		err = runForm(ctx, args, os.Stdout)

	case "verify":
		err = runVerify(ctx, args, os.Stdin, os.Stdout)

	case "version":
		fmt.Printf("Alexander Form Upload CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "help", "-h", "--help":
		printUsage(os.Stdout)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Alexander Form Upload CLI

Usage:
  formupload <command> [arguments]

Commands:
  form        Build a signed upload form
  verify      Check a submitted form against the current credentials
  version     Print version information
  help        Show this help message

Credentials are read from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.

Examples:
  formupload form --bucket test-bucket --prefix pending --acl private
  formupload form --bucket test-bucket --key report.pdf --format html > upload.html
  formupload form --bucket test-bucket --prefix pending | jq .fields > fields.json
  formupload verify --bucket test-bucket --fields fields.json --filename photo.jpg --size 512

Use "formupload <command> --help" for more information about a command.`)
}

// newLogger returns a console logger on stderr.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

// defaultRegion reads the region the AWS tools use.
func defaultRegion() string {
	for _, name := range []string{"AWS_REGION", "AWS_DEFAULT_REGION"} {
		if region := os.Getenv(name); region != "" {
			return region
		}
	}
	return "us-east-1"
}

// formOptions holds the parsed flags of the form command.
type formOptions struct {
	bucket       string
	region       string
	key          string
	prefix       string
	acl          string
	successURL   string
	meta         []string
	minSize      int64
	maxSize      int64
	expires      time.Duration
	hostTemplate string
	endpoint     string
	format       string
	verbose      bool
}

func parseFormFlags(args []string) (*formOptions, error) {
	opts := &formOptions{}

	flags := pflag.NewFlagSet("form", pflag.ContinueOnError)
	flags.StringVarP(&opts.bucket, "bucket", "b", "", "target bucket (required)")
	flags.StringVarP(&opts.region, "region", "r", defaultRegion(), "bucket region")
	flags.StringVarP(&opts.key, "key", "k", "", "exact object key")
	flags.StringVarP(&opts.prefix, "prefix", "p", "", "key prefix; the browser picks the file name")
	flags.StringVar(&opts.acl, "acl", "", "canned ACL (default private)")
	flags.StringVar(&opts.successURL, "success-url", "", "redirect URL after a successful upload")
	flags.StringArrayVar(&opts.meta, "meta", nil, "metadata as name=value, repeatable")
	flags.Int64Var(&opts.minSize, "min-size", 0, "minimum file size in bytes")
	flags.Int64Var(&opts.maxSize, "max-size", 0, "maximum file size in bytes")
	flags.DurationVar(&opts.expires, "expires", time.Hour, "policy lifetime")
	flags.StringVar(&opts.hostTemplate, "host-template", service.DefaultHostTemplate, "upload host, {region} is substituted")
	flags.StringVar(&opts.endpoint, "endpoint", "", "custom S3 endpoint for the client")
	flags.StringVarP(&opts.format, "format", "f", "json", "output format: json or html")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if opts.bucket == "" {
		return nil, fmt.Errorf("--bucket is required")
	}
	if opts.format != "json" && opts.format != "html" {
		return nil, fmt.Errorf("--format must be json or html")
	}
	return opts, nil
}

// parseMeta turns name=value pairs into metadata. Repeated names collect values.
func parseMeta(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string][]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --meta %q: want name=value", pair)
		}
		meta[name] = append(meta[name], value)
	}
	return meta, nil
}

func runForm(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFormFlags(args)
	if err != nil {
		return err
	}
	meta, err := parseMeta(opts.meta)
	if err != nil {
		return err
	}

	logger := newLogger(opts.verbose)

	registry := connection.NewRegistry(connection.NewS3ClientFactory(connection.S3Options{
		Endpoint: opts.endpoint,
	}))
	conn, err := resource.NewConnection(registry, opts.region)
	if err != nil {
		return err
	}
	bucket, err := resource.NewBucket(opts.bucket, conn)
	if err != nil {
		return err
	}

	input := service.UploadInput{
		Bucket:           bucket,
		KeyPrefix:        opts.prefix,
		ACL:              domain.CannedACL(opts.acl),
		SuccessURL:       opts.successURL,
		Metadata:         meta,
		MinContentLength: opts.minSize,
		MaxContentLength: opts.maxSize,
		Expiry:           opts.expires,
	}
	if opts.key != "" {
		if input.Key, err = bucket.Key(opts.key); err != nil {
			return err
		}
	}

	svc := service.NewFormService(service.FormConfig{HostTemplate: opts.hostTemplate}, logger)
	uploadForm, err := svc.BuildSignedUploadForm(ctx, input)

	if opts.format == "html" {
		_, werr := io.WriteString(out, form.String(uploadForm, err))
		if err != nil {
			return err
		}
		return werr
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(uploadForm)
}

func runVerify(ctx context.Context, args []string, stdin io.Reader, out io.Writer) error {
	var (
		bucket     string
		fieldsPath string
		filename   string
		size       int64
		verbose    bool
	)

	flags := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	flags.StringVarP(&bucket, "bucket", "b", "", "bucket the form was posted to (required)")
	flags.StringVar(&fieldsPath, "fields", "-", "JSON object of submitted fields, - for stdin")
	flags.StringVar(&filename, "filename", "", "uploaded file name, substituted for ${filename}")
	flags.Int64Var(&size, "size", -1, "uploaded file size in bytes, -1 if unknown")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if bucket == "" {
		return fmt.Errorf("--bucket is required")
	}

	fields, err := readFields(fieldsPath, stdin)
	if err != nil {
		return err
	}

	svc := service.NewFormService(service.FormConfig{}, newLogger(verbose))
	verified, err := svc.VerifyUpload(ctx, service.VerifyUploadInput{
		Bucket:        bucket,
		Fields:        fields,
		Filename:      filename,
		ContentLength: size,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(map[string]any{
		"valid":        true,
		"key":          verified.Key,
		"access_key":   verified.Credential.AccessKey,
		"region":       verified.Credential.Scope.Region,
		"request_time": verified.RequestTime,
		"expiration":   verified.Policy.Expiration,
	})
}

// readFields reads a JSON object of form fields from path, or stdin for "-".
// A full form document with a "fields" member is accepted as well.
func readFields(path string, stdin io.Reader) (map[string]string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fields: %w", err)
	}

	var wrapped struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Fields) > 0 {
		return wrapped.Fields, nil
	}

	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("fields must be a JSON object of strings: %w", err)
	}
	return fields, nil
}
