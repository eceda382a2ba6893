package forms

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/uhppoted/uhppoted-app-forms/store"
)

type Mode string

const (
	Replace Mode = "replace"
	Append  Mode = "append"
)

// Form binds a web form to the table its submissions are stored in.
type Form struct {
	ID        string       `yaml:"id"        json:"id"`
	Title     string       `yaml:"title"     json:"title"`
	Table     string       `yaml:"table"     json:"table"`
	Header    store.Header `yaml:"header"    json:"header"`
	Mode      Mode         `yaml:"mode"      json:"mode"`
	Checklist bool         `yaml:"checklist" json:"checklist"`
}

type Forms []Form

//go:embed forms.yaml
var defaults []byte

// Defaults returns the built-in ISMS form set.
func Defaults() Forms {
	forms, err := Parse(defaults)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in forms (%v)", err))
	}

	return forms
}

// Load reads the form definitions from a YAML file, falling back to the built-in forms if the
// file does not exist.
func Load(path string) (Forms, error) {
	if strings.TrimSpace(path) == "" {
		return Defaults(), nil
	}

	bytes, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	} else if err != nil {
		return nil, err
	}

	forms, err := Parse(bytes)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}

	return forms, nil
}

func Parse(bytes []byte) (Forms, error) {
	var file struct {
		Forms Forms `yaml:"forms"`
	}

	if err := yaml.Unmarshal(bytes, &file); err != nil {
		return nil, err
	}

	ids := map[string]bool{}
	for i := range file.Forms {
		form := &file.Forms[i]

		form.ID = strings.TrimSpace(form.ID)
		if form.ID == "" {
			return nil, fmt.Errorf("form %d: missing ID", i+1)
		} else if ids[form.ID] {
			return nil, fmt.Errorf("duplicate form ID '%s'", form.ID)
		}

		if strings.TrimSpace(form.Table) == "" {
			return nil, fmt.Errorf("form '%s': missing table", form.ID)
		}

		if len(form.Header) == 0 {
			return nil, fmt.Errorf("form '%s': missing header", form.ID)
		}

		switch form.Mode {
		case "":
			form.Mode = Replace
		case Replace, Append:
		default:
			return nil, fmt.Errorf("form '%s': invalid mode '%s'", form.ID, form.Mode)
		}

		if form.Checklist && len(form.Header) != len(checklist) {
			return nil, fmt.Errorf("form '%s': checklist forms have %d columns", form.ID, len(checklist))
		}

		if form.Title == "" {
			form.Title = form.Table
		}

		ids[form.ID] = true
	}

	return file.Forms, nil
}

func (f Forms) Find(id string) (Form, bool) {
	for _, form := range f {
		if form.ID == id {
			return form, true
		}
	}

	return Form{}, false
}
