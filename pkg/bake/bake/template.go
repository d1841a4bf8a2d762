// Copyright 2025 The pybake Authors
// SPDX-License-Identifier: Apache-2.0

package bake

import (
	"bytes"
	"text/template"

	"github.com/pkg/errors"

	"github.com/pybake/pybake/pkg/bake/flow"
)

// PopulateTemplate renders an inline template against data.
func PopulateTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("").Option("missingkey=error").Funcs(template.FuncMap{
		"shellquote":  flow.Shellquote,
		"interpreter": Interpreter,
	}).Parse(tmpl)
	if err != nil {
		return "", errors.Wrapf(err, "parsing template: %s", tmpl)
	}
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		return "", errors.Wrapf(err, "executing template: %s", tmpl)
	}
	return buf.String(), nil
}
