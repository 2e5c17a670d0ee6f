package cli

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/openapi"
	"github.com/goliatone/go-nestedforms/pkg/orchestrator"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// ErrInvalidSubmission is returned after the errors of a rejected submission
// have been written, so the process exits non-zero.
var ErrInvalidSubmission = errors.New("submission is invalid")

// session holds what a command needs to build forms from the configured
// declaration.
type session struct {
	opts  *RootOptions
	form  model.FormModel
	db    *store.DB
	build *orchestrator.Orchestrator
}

func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	form, err := loadDeclaration(ctx, opts)
	if err != nil {
		return nil, err
	}

	s := &session{opts: opts, form: form}
	orchestratorOptions := []orchestrator.Option{
		orchestrator.WithLogger(opts.Logger),
		orchestrator.WithSanitizer(bluemonday.StrictPolicy()),
	}
	if tables := orchestrator.Tables(form); len(tables) > 0 {
		db, err := store.Open(opts.Config.DSN, store.WithLogger(opts.Logger))
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, tables...); err != nil {
			db.Close()
			return nil, err
		}
		s.db = db
		orchestratorOptions = append(orchestratorOptions, orchestrator.WithStore(db))
	}
	s.build = orchestrator.New(orchestratorOptions...)
	return s, nil
}

func (s *session) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *session) Build(ctx context.Context, data url.Values) (*orchestrator.Result, error) {
	return s.build.Build(ctx, orchestrator.Request{Form: s.form, Data: data})
}

func loadDeclaration(ctx context.Context, opts *RootOptions) (model.FormModel, error) {
	path := strings.TrimSpace(opts.Config.Declaration)
	if path == "" {
		return model.FormModel{}, errors.WithHint(
			errors.New("no declaration given"),
			"pass --declaration or set NESTEDFORMS_DECLARATION")
	}
	if opts.Component != "" {
		return openapi.Load(ctx, path, opts.Component)
	}
	return model.Load(path)
}

// readSubmission reads a URL-encoded submission from the file named by the
// first argument, or from in when there is none or it is "-". Pairs may be
// split across lines.
func readSubmission(args []string, in io.Reader) (url.Values, error) {
	source := in
	if len(args) > 0 && args[0] != "-" {
		file, err := os.Open(args[0])
		if err != nil {
			return nil, errors.Wrap(err, "open submission")
		}
		defer file.Close()
		source = file
	}

	raw, err := io.ReadAll(source)
	if err != nil {
		return nil, errors.Wrap(err, "read submission")
	}
	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(string(raw), "\r\n", "\n")), "\n")
	values, err := url.ParseQuery(strings.Join(lines, "&"))
	if err != nil {
		return nil, errors.Wrap(err, "parse submission")
	}
	return values, nil
}
