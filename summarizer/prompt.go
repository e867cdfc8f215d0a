// Package summarizer forwards extracted document text to a language model and
// returns its free-text limitation analysis.
package summarizer

import (
	"fmt"
	"strings"

	"guarulhosfacil/limitation"
)

const (
	// MaxTranscriptRunes bounds the document text sent to the model.
	MaxTranscriptRunes = 12000
	Temperature        = 0.2
	MaxOutputTokens    = 1500
)

// SystemRole is the fixed instruction given to the model on every call.
const SystemRole = "Você é um assistente jurídico especializado em execução fiscal e prescrição tributária no Brasil. " +
	"Responda em português, de forma objetiva."

// Clip returns the first max runes of s.
func Clip(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// BuildPrompt assembles the user message for a transcript.
func BuildPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("Texto do processo (trecho):\n\"\"\"\n")
	b.WriteString(Clip(transcript, MaxTranscriptRunes))
	b.WriteString("\n\"\"\"\n\n")
	b.WriteString("Com base no texto acima:\n")
	b.WriteString("1. Extraia as datas do fato gerador, da inscrição em dívida ativa, da citação e da última movimentação. ")
	b.WriteString("Informe \"não encontrada\" quando uma data não aparecer.\n")
	fmt.Fprintf(&b, "2. Aplique as regras: prescrição originária quando a inscrição ocorreu mais de %d dias após o fato gerador; "+
		"prescrição intercorrente quando houve citação e a última movimentação tem mais de %d dias.\n",
		limitation.Threshold, limitation.Threshold)
	b.WriteString("3. Escreva uma recomendação curta para a defesa.\n")
	return b.String()
}
