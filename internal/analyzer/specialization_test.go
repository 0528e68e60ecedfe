package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/BerylCAtieno/health-records-api/internal/llm"
	"github.com/stretchr/testify/assert"
)

func TestSpecializationTaxonomy(t *testing.T) {
	assert.Len(t, Specializations, 10)
	assert.Contains(t, Specializations, DefaultSpecialization)
}

func TestMatchEmptyInputSkipsModel(t *testing.T) {
	fake := &fakeCompleter{response: "Cardiologist"}
	m := NewSpecializationMatcher(fake, testLogger)

	got := m.Match(context.Background(), "   \n\t")
	assert.Equal(t, DefaultSpecialization, got.Specialization)
	assert.Empty(t, fake.requests)
}

func TestMatchModelFailureDefaults(t *testing.T) {
	for _, c := range []llm.Completer{llm.Unconfigured{}, &fakeCompleter{err: errors.New("boom")}} {
		m := NewSpecializationMatcher(c, testLogger)
		got := m.Match(context.Background(), "Chest pain radiating to left arm")
		assert.Equal(t, DefaultSpecialization, got.Specialization)
		assert.Equal(t, confidenceDefault, got.Confidence)
	}
}

func TestMatchPartialAnswer(t *testing.T) {
	fake := &fakeCompleter{response: "I recommend a Cardiologist for this patient"}
	m := NewSpecializationMatcher(fake, testLogger)

	got := m.Match(context.Background(), "ECG shows ST elevation")
	assert.Equal(t, "Cardiologist", got.Specialization)
	assert.Equal(t, confidencePartial, got.Confidence)
	assert.Contains(t, fake.requests[0].User, "ENT Specialist")
}

func TestResolveSpecialization(t *testing.T) {
	tests := []struct {
		response   string
		want       string
		confidence float64
	}{
		{"Cardiologist", "Cardiologist", confidenceExact},
		{"  pulmonologist.\n", "Pulmonologist", confidenceExact},
		{"ENT Specialist", "ENT Specialist", confidenceExact},
		{"**Neurologist**", "Neurologist", confidenceExact},
		{"The patient should see a dermatologist soon", "Dermatologist", confidencePartial},
		{"ENT", "ENT Specialist", confidencePartial},
		{"Oncologist", DefaultSpecialization, confidenceDefault},
		{"", DefaultSpecialization, confidenceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			got := ResolveSpecialization(tt.response)
			assert.Equal(t, tt.want, got.Specialization)
			assert.Equal(t, tt.confidence, got.Confidence)
		})
	}
}
