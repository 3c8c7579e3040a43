package dialogue

import (
	"strings"
	"testing"
)

func TestInferGenderFromName(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantGender     string
		wantConfidence float64
	}{
		{name: "dictionary male", input: "José João", wantGender: GenderMale, wantConfidence: 0.95},
		{name: "dictionary female", input: "Maria de Souza", wantGender: GenderFemale, wantConfidence: 0.95},
		{name: "dictionary ignores diacritics", input: "JOÃO Pedro", wantGender: GenderMale, wantConfidence: 0.95},
		{name: "suffix a", input: "Valeska Lima", wantGender: GenderFemale, wantConfidence: 0.75},
		{name: "suffix o", input: "Evandro Reis", wantGender: GenderMale, wantConfidence: 0.75},
		{name: "no signal", input: "Samir", wantGender: GenderUnknown, wantConfidence: 0.3},
		{name: "empty", input: "", wantGender: GenderUnknown, wantConfidence: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferGenderFromName(tt.input)
			if got.Gender != tt.wantGender || got.Confidence != tt.wantConfidence {
				t.Errorf("InferGenderFromName(%q) = %+v, want {%s %v}", tt.input, got, tt.wantGender, tt.wantConfidence)
			}
		})
	}
}

func TestShouldSkipGenderQuestion(t *testing.T) {
	if !ShouldSkipGenderQuestion(GenderInference{Gender: GenderFemale, Confidence: 0.95}) {
		t.Error("dictionary-level confidence should skip the question")
	}
	if ShouldSkipGenderQuestion(GenderInference{Gender: GenderMale, Confidence: 0.75}) {
		t.Error("suffix-level confidence must not skip the question")
	}
	if ShouldSkipGenderQuestion(GenderInference{Gender: GenderUnknown, Confidence: 0.95}) {
		t.Error("unknown gender must never skip the question")
	}
}

func TestHonorific(t *testing.T) {
	if got := Honorific(GenderMale); got != "Sr." {
		t.Errorf("Honorific(male) = %q", got)
	}
	if got := Honorific(GenderFemale); got != "Sra." {
		t.Errorf("Honorific(female) = %q", got)
	}
	if got := Honorific(GenderOther); got != "" {
		t.Errorf("Honorific(other) = %q, want empty", got)
	}
}

func TestGenderConfirmationMessage(t *testing.T) {
	male := GenderConfirmationMessage(GenderInference{Gender: GenderMale, Confidence: 0.75}, "Evandro")
	if !strings.Contains(male, "Sr. Evandro") || !strings.Contains(male, "(sim/não)") {
		t.Errorf("male confirmation = %q", male)
	}

	female := GenderConfirmationMessage(GenderInference{Gender: GenderFemale, Confidence: 0.75}, "Valeska")
	if !strings.Contains(female, "Sra. Valeska") {
		t.Errorf("female confirmation = %q", female)
	}

	unknown := GenderConfirmationMessage(GenderInference{Gender: GenderUnknown, Confidence: 0.3}, "Samir")
	if !strings.Contains(unknown, "masculino/feminino/outro") {
		t.Errorf("unknown confirmation = %q", unknown)
	}
}
