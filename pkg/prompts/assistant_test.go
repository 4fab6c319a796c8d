package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt("- projects(pj_id PK, tenant_id)", "acme")

	assert.Contains(t, prompt, "- projects(pj_id PK, tenant_id)")
	assert.Contains(t, prompt, "tenant_id = 'acme'")
	assert.Contains(t, prompt, "SOLO con una sentencia SQL SELECT")
	assert.Contains(t, prompt, "Nunca mezcles SQL y texto")
	assert.Contains(t, prompt, "nunca menciones nombres de tablas")
}

func TestBuildUserPrompt(t *testing.T) {
	assert.Equal(t, "hola", BuildUserPrompt("hola", nil))

	prompt := BuildUserPrompt("¿y ayer?", []models.ChatMessage{
		{Role: models.ChatRoleUser, Content: "¿cuántos marcaron hoy?"},
		{Role: models.ChatRoleAssistant, Content: "Hoy marcaron entrada 42 personas."},
	})
	lines := strings.Split(prompt, "\n")
	assert.Equal(t, "Usuario: ¿cuántos marcaron hoy?", lines[1])
	assert.Equal(t, "Asistente: Hoy marcaron entrada 42 personas.", lines[2])
	assert.True(t, strings.HasSuffix(prompt, "¿y ayer?"))
}

func TestNarrationPrompts(t *testing.T) {
	assert.Contains(t, BuildNarrationSystemPrompt(), NoRecordsNarration)
	assert.Equal(t, "Pregunta: q\n\nResultado (JSON):\n[]", BuildNarrationUserPrompt("q", "[]"))
}
