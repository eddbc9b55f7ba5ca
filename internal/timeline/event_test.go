package timeline

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kalambet/fabula/internal/storage"
)

func TestValidateEvent(t *testing.T) {
	ok := storage.Event{Title: "Founding", DateText: "Year of Ash"}
	if err := ValidateEvent(ok); err != nil {
		t.Errorf("ValidateEvent(valid) = %v", err)
	}

	var verr *ValidationError

	missingTitle := storage.Event{Title: "   ", DateText: "Year of Ash"}
	err := ValidateEvent(missingTitle)
	if !errors.As(err, &verr) || verr.Field != "title" {
		t.Errorf("missing title: err = %v, want ValidationError{title}", err)
	}

	missingDate := storage.Event{Title: "Founding"}
	err = ValidateEvent(missingDate)
	if !errors.As(err, &verr) || verr.Field != "date_text" {
		t.Errorf("missing date_text: err = %v, want ValidationError{date_text}", err)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Maren, Tobias", []string{"Maren", "Tobias"}},
		{"Maren; Tobias", []string{"Maren", "Tobias"}},
		{"Maren, Tobias; Ilse", []string{"Maren", "Tobias", "Ilse"}},
		{" Maren ,, maren , MAREN, Ilse", []string{"Maren", "Ilse"}},
		{"", nil},
		{" , ; , ", nil},
	}
	for _, tt := range tests {
		got := SplitList(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	e := Normalize(storage.Event{
		Title:      "  Founding  ",
		DateText:   " Year of Ash ",
		StartDate:  " 1997 ",
		Era:        "  ",
		Characters: []string{" Maren ", "", "maren"},
	})
	if e.Title != "Founding" || e.DateText != "Year of Ash" || e.StartDate != "1997" {
		t.Errorf("Normalize trimming failed: %+v", e)
	}
	if e.Era != "" {
		t.Errorf("blank era should normalize to empty, got %q", e.Era)
	}
	if !reflect.DeepEqual(e.Characters, []string{"Maren"}) {
		t.Errorf("Characters = %v, want [Maren]", e.Characters)
	}
}
