package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAgentDecision(t *testing.T) {
	require.NoError(t, ValidateJSONString(AgentDecision, `{"thought":"ok","action":"FOLLOW_UP","message":"왜죠?"}`))

	err := ValidateJSONString(AgentDecision, `{"action":"STOP"}`)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	assert.Equal(t, AgentDecision, ve.Schema)
	assert.NotEmpty(t, ve.Errors)
}

func TestValidateAnswerFeedbackScoreRange(t *testing.T) {
	require.NoError(t, ValidateJSONString(AnswerFeedback, `{"feedback":"good","score":7,"isPassed":true}`))
	assert.Error(t, ValidateJSONString(AnswerFeedback, `{"feedback":"good","score":11}`))
	assert.Error(t, ValidateJSONString(AnswerFeedback, `{"feedback":"good","score":7.5}`))
	assert.Error(t, ValidateJSONString(AnswerFeedback, `{"score":7}`))
}

func TestValidateUnknownSchema(t *testing.T) {
	err := ValidateJSONString("missing", `{}`)
	var le *SchemaLoadError
	assert.True(t, errors.As(err, &le))
}

func TestValidateMalformedDocument(t *testing.T) {
	assert.Error(t, ValidateJSONString(Question, `{"question":`))
}
