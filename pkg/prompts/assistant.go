// Package prompts builds the text sent to the reasoning service.
package prompts

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

// FallbackNarration is returned when the narration call fails after a query ran.
const FallbackNarration = "Obtuve los datos solicitados, pero no pude redactar la respuesta en este momento. Intenta nuevamente en unos minutos."

// NoRecordsNarration is the sentence the narrator must use for an empty result.
const NoRecordsNarration = "No se encontraron registros."

// BuildSystemPrompt embeds persona, schema and tenant into the first-call
// system prompt. The output rules require either one SELECT or plain prose.
func BuildSystemPrompt(schemaSummary, tenantID string) string {
	var prompt strings.Builder

	prompt.WriteString("# Rol\n")
	prompt.WriteString("Eres un asistente de operaciones para empresas de construcción. ")
	prompt.WriteString("Respondes preguntas sobre proyectos, asistencia del personal y seguridad en obra, en español.\n\n")

	prompt.WriteString("## Esquema de datos\n")
	prompt.WriteString(schemaSummary)
	if !strings.HasSuffix(schemaSummary, "\n") {
		prompt.WriteString("\n")
	}
	prompt.WriteString("\n")

	prompt.WriteString("## Tenant\n")
	fmt.Fprintf(&prompt, "Todas las consultas deben filtrar por tenant_id = '%s' en cada tabla marcada como tenant-scoped.\n\n", tenantID)

	prompt.WriteString("## Formato de salida\n")
	prompt.WriteString("- Si la pregunta requiere datos, responde SOLO con una sentencia SQL SELECT, sin explicación ni texto adicional.\n")
	prompt.WriteString("- Si no requiere datos, responde SOLO con texto en lenguaje natural.\n")
	prompt.WriteString("- Nunca mezcles SQL y texto en la misma respuesta.\n")
	prompt.WriteString("- Solo lectura: nunca generes sentencias que modifiquen datos o estructura.\n")
	prompt.WriteString("- En respuestas de texto nunca menciones nombres de tablas, columnas ni identificadores de tenant.\n")

	return prompt.String()
}

// BuildUserPrompt prefixes the utterance with earlier turns of the thread.
func BuildUserPrompt(utterance string, history []models.ChatMessage) string {
	if len(history) == 0 {
		return utterance
	}

	var prompt strings.Builder
	prompt.WriteString("Conversación previa:\n")
	for _, msg := range history {
		speaker := "Usuario"
		if msg.Role == models.ChatRoleAssistant {
			speaker = "Asistente"
		}
		fmt.Fprintf(&prompt, "%s: %s\n", speaker, msg.Content)
	}
	prompt.WriteString("\nPregunta actual:\n")
	prompt.WriteString(utterance)
	return prompt.String()
}

// BuildNarrationSystemPrompt instructs the second call to turn a JSON result set into prose.
func BuildNarrationSystemPrompt() string {
	var prompt strings.Builder
	prompt.WriteString("Eres un asistente de operaciones. Recibirás una pregunta y el resultado de una consulta en JSON.\n")
	prompt.WriteString("Redacta una respuesta breve y clara en español que conteste la pregunta usando solo esos datos.\n")
	fmt.Fprintf(&prompt, "Si el resultado está vacío ([]), responde exactamente: \"%s\"\n", NoRecordsNarration)
	prompt.WriteString("No menciones SQL, nombres de tablas, columnas ni identificadores de tenant.\n")
	return prompt.String()
}

// BuildNarrationUserPrompt pairs the question with its JSON result.
func BuildNarrationUserPrompt(utterance, resultJSON string) string {
	return fmt.Sprintf("Pregunta: %s\n\nResultado (JSON):\n%s", utterance, resultJSON)
}
