package forms

import (
	"fmt"
	"strings"
	"time"

	"github.com/uhppoted/uhppoted-app-forms/store"
)

const (
	Pass = "적합"
	Fail = "미적합"
)

// Checklist column order: title, date, checker, division, item, standard, method, pass, fail,
// improvement, timestamp.
var checklist = []string{
	"title",
	"date",
	"checker",
	"division",
	"item",
	"standard",
	"method",
	"pass",
	"fail",
	"improvement",
	"timestamp",
}

// Submission is a single completed inspection checklist.
type Submission struct {
	DocumentTitle string `json:"documentTitle"`
	CheckDate     string `json:"checkDate"`
	CheckerName   string `json:"checkerName"`
	CheckItems    []Item `json:"checkItems"`
}

type Item struct {
	CheckDivision string `json:"checkDivision"`
	CheckItem     string `json:"checkItem"`
	CheckStandard string `json:"checkStandard"`
	CheckMethod   string `json:"checkMethod"`
	CheckResult   string `json:"checkResult"`
	Improvement   string `json:"improvement"`
}

func (s Submission) Validate() error {
	if strings.TrimSpace(s.DocumentTitle) == "" {
		return fmt.Errorf("missing checklist title")
	}

	if strings.TrimSpace(s.CheckDate) == "" {
		return fmt.Errorf("missing inspection date")
	}

	if strings.TrimSpace(s.CheckerName) == "" {
		return fmt.Errorf("missing inspector")
	}

	for i, item := range s.CheckItems {
		switch strings.TrimSpace(item.CheckResult) {
		case "", Pass, Fail:
		default:
			return fmt.Errorf("item %d: invalid result '%s'", i+1, item.CheckResult)
		}
	}

	return nil
}

// Rows flattens the submission to one row per checklist item, all stamped with the same
// submission time.
func (s Submission) Rows(timestamp time.Time) []store.Row {
	rows := []store.Row{}

	for _, item := range s.CheckItems {
		result := strings.TrimSpace(item.CheckResult)

		rows = append(rows, store.Row{
			clean(s.DocumentTitle),
			clean(s.CheckDate),
			clean(s.CheckerName),
			clean(item.CheckDivision),
			clean(item.CheckItem),
			clean(item.CheckStandard),
			clean(item.CheckMethod),
			mark(result == Pass),
			mark(result == Fail),
			clean(item.Improvement),
			timestamp,
		})
	}

	return rows
}

func mark(b bool) string {
	if b {
		return "O"
	}

	return ""
}

func clean(v string) string {
	return strings.TrimSpace(v)
}
