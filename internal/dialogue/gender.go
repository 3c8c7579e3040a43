package dialogue

import (
	"fmt"
	"strings"
)

// GenderInference is the result of inferring a user's gender from their name.
type GenderInference struct {
	Gender     string
	Confidence float64
}

// skipGenderQuestionThreshold: at or above this confidence the bot adopts the
// inferred gender and honorific without asking.
const skipGenderQuestionThreshold = 0.85

// maleNames and femaleNames cover the common Brazilian first names seen in
// production conversations. Keys are normalized (lowercase, no diacritics).
var maleNames = map[string]bool{
	"joao": true, "jose": true, "antonio": true, "francisco": true,
	"carlos": true, "paulo": true, "pedro": true, "lucas": true,
	"luiz": true, "luis": true, "marcos": true, "gabriel": true,
	"rafael": true, "daniel": true, "marcelo": true, "bruno": true,
	"eduardo": true, "felipe": true, "rodrigo": true, "manoel": true,
	"mateus": true, "matheus": true, "andre": true, "fernando": true,
	"gustavo": true, "guilherme": true, "leonardo": true, "thiago": true,
	"tiago": true, "ricardo": true, "sergio": true, "alexandre": true,
	"vinicius": true, "diego": true, "leandro": true, "henrique": true,
	"fabio": true, "julio": true, "cesar": true, "renato": true,
	"miguel": true, "arthur": true, "davi": true, "bernardo": true,
	"heitor": true, "samuel": true, "enzo": true, "caio": true,
}

var femaleNames = map[string]bool{
	"maria": true, "ana": true, "francisca": true, "antonia": true,
	"adriana": true, "juliana": true, "marcia": true, "fernanda": true,
	"patricia": true, "aline": true, "sandra": true, "camila": true,
	"amanda": true, "bruna": true, "jessica": true, "leticia": true,
	"julia": true, "luciana": true, "vanessa": true, "mariana": true,
	"gabriela": true, "vera": true, "vitoria": true, "larissa": true,
	"claudia": true, "beatriz": true, "helena": true, "alice": true,
	"laura": true, "sophia": true, "sofia": true, "isabela": true,
	"isabella": true, "manuela": true, "valentina": true, "cecilia": true,
	"luiza": true, "lorena": true, "livia": true, "carolina": true,
	"simone": true, "renata": true, "michele": true, "rosangela": true,
	"natalia": true, "debora": true, "raquel": true, "tatiane": true,
}

// InferGenderFromName infers gender from the first name: dictionary lookup
// first (high confidence), then the pt-BR -a/-o suffix convention (medium
// confidence, below the skip threshold so a confirmation question follows).
func InferGenderFromName(name string) GenderInference {
	first := firstNameOf(name)
	if first == "" {
		return GenderInference{Gender: GenderUnknown, Confidence: 0}
	}

	if maleNames[first] {
		return GenderInference{Gender: GenderMale, Confidence: 0.95}
	}
	if femaleNames[first] {
		return GenderInference{Gender: GenderFemale, Confidence: 0.95}
	}

	switch {
	case strings.HasSuffix(first, "a"):
		return GenderInference{Gender: GenderFemale, Confidence: 0.75}
	case strings.HasSuffix(first, "o"):
		return GenderInference{Gender: GenderMale, Confidence: 0.75}
	}
	return GenderInference{Gender: GenderUnknown, Confidence: 0.3}
}

func firstNameOf(name string) string {
	fields := strings.Fields(Normalize(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ShouldSkipGenderQuestion reports whether the inference is confident enough
// to adopt the gender silently and address the user with the honorific.
func ShouldSkipGenderQuestion(inf GenderInference) bool {
	return inf.Gender != GenderUnknown && inf.Confidence >= skipGenderQuestionThreshold
}

// Honorific returns the pt-BR treatment pronoun for a gender, or empty when
// none applies.
func Honorific(gender string) string {
	switch gender {
	case GenderMale:
		return "Sr."
	case GenderFemale:
		return "Sra."
	}
	return ""
}

// GenderConfirmationMessage builds the tailored yes/no question asked when the
// inference is plausible but not confident enough to adopt silently.
func GenderConfirmationMessage(inf GenderInference, name string) string {
	switch inf.Gender {
	case GenderMale:
		return fmt.Sprintf("%s, posso te chamar de Sr. %s? (sim/não)", name, name)
	case GenderFemale:
		return fmt.Sprintf("%s, posso te chamar de Sra. %s? (sim/não)", name, name)
	}
	return fmt.Sprintf("%s, como você prefere ser tratado(a)? (masculino/feminino/outro)", name)
}
