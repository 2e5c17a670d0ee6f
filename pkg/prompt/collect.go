package prompt

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/goliatone/go-nestedforms/pkg/forms"
	"github.com/goliatone/go-nestedforms/pkg/formset"
	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/render"
)

// Option customises a Collector.
type Option func(*Collector)

// WithDriver replaces the survey driver.
func WithDriver(driver Driver) Option {
	return func(c *Collector) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Collector asks for the values of a declared form and its formsets and
// returns them as a submission, management form included.
type Collector struct {
	driver Driver
	logger *zap.SugaredLogger
}

// New returns a Collector using the survey driver unless WithDriver is given.
func New(options ...Option) *Collector {
	c := &Collector{logger: zap.NewNop().Sugar()}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.driver == nil {
		c.driver = SurveyDriver()
	}
	return c
}

// Collect prompts for every parent field, then for as many entries of each
// formset as the user adds.
func (c *Collector) Collect(ctx context.Context, form model.FormModel) (url.Values, error) {
	if ctx == nil {
		return nil, errors.New("prompt: context is required")
	}
	values := url.Values{}
	parent := forms.New(form.Fields, forms.WithPrefix(form.Prefix))
	if err := c.fields(ctx, values, parent, form.Fields); err != nil {
		return nil, err
	}

	for _, declared := range form.Formsets {
		prefix := parent.AddPrefix(declared.Key)
		count, err := c.entries(ctx, values, prefix, declared)
		if err != nil {
			return nil, err
		}
		management := formset.New(declared.Fields, formset.WithPrefix(prefix), formset.WithExtra(count), formset.WithMaxNum(declared.MaxNum, false))
		values = render.ApplyHidden(values, management.ManagementFields()...)
		c.logger.Debugw("formset collected", "prefix", prefix, "entries", count)
	}
	return values, nil
}

func (c *Collector) entries(ctx context.Context, values url.Values, prefix string, declared model.FormsetModel) (int, error) {
	limit := declared.MaxNum
	if limit <= 0 {
		limit = formset.DefaultMaxNum
	}
	label := model.DefaultLabeler(declared.Key)

	count := 0
	for count < limit {
		if count >= declared.MinNum {
			more, err := c.driver.Confirm(ctx, ConfirmConfig{
				Message: fmt.Sprintf("Add %s entry #%d?", label, count+1),
				Default: count == 0,
			})
			if err != nil {
				return 0, err
			}
			if !more {
				break
			}
		}
		if err := c.driver.Info(ctx, fmt.Sprintf("%s #%d", label, count+1)); err != nil {
			return 0, err
		}
		entry := forms.New(declared.Fields, forms.WithPrefix(fmt.Sprintf("%s-%d", prefix, count)))
		if err := c.fields(ctx, values, entry, declared.Fields); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

func (c *Collector) fields(ctx context.Context, values url.Values, form *forms.Form, fields []model.Field) error {
	for _, field := range fields {
		answer, err := c.ask(ctx, field)
		if err != nil {
			return errors.Wrapf(err, "prompt: %s", form.AddPrefix(field.Name))
		}
		if answer != "" {
			values.Set(form.AddPrefix(field.Name), answer)
		}
	}
	return nil
}

func (c *Collector) ask(ctx context.Context, field model.Field) (string, error) {
	message := field.DisplayLabel()
	switch {
	case field.Type == model.FieldTypeBoolean:
		checked, err := c.driver.Confirm(ctx, ConfirmConfig{Message: message, Help: field.Description, Default: field.Default == true})
		if err != nil || !checked {
			return "", err
		}
		return "on", nil
	case len(field.Enum) > 0:
		options := make([]string, len(field.Enum))
		defaultIndex := 0
		for i, option := range field.Enum {
			options[i] = fmt.Sprint(option)
			if field.Default != nil && options[i] == fmt.Sprint(field.Default) {
				defaultIndex = i
			}
		}
		index, err := c.driver.Select(ctx, SelectConfig{Message: message, Options: options, DefaultIndex: defaultIndex, Help: field.Description})
		if err != nil {
			return "", err
		}
		if index < 0 || index >= len(options) {
			return "", errors.Newf("prompt: no option selected for %s", field.Name)
		}
		return options[index], nil
	default:
		cfg := InputConfig{Message: message, Help: field.Description}
		if field.Default != nil {
			cfg.Default = fmt.Sprint(field.Default)
		}
		if field.Required {
			cfg.Validator = func(answer string) error {
				if strings.TrimSpace(answer) == "" {
					return errors.New("This field is required.")
				}
				return nil
			}
		}
		return c.driver.Input(ctx, cfg)
	}
}
