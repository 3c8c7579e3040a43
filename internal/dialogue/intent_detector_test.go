package dialogue

import (
	"context"
	"reflect"
	"testing"
)

func TestDetectPrimaryIntent(t *testing.T) {
	detector := NewIntentDetector(nil, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		want    IntentKey
	}{
		{name: "greeting", message: "Olá, bom dia!", want: IntentGreeting},
		{name: "services", message: "quais serviços vocês fazem?", want: IntentServices},
		{name: "pricing", message: "Quanto custa o corte?", want: IntentPricing},
		{name: "availability", message: "tem horário livre na sexta?", want: IntentAvailability},
		{name: "my appointments", message: "o que eu tenho marcado?", want: IntentMyAppointments},
		{name: "address", message: "qual o endereço de vocês?", want: IntentAddress},
		{name: "payments", message: "aceitam pix?", want: IntentPayments},
		{name: "business hours", message: "qual o horário de funcionamento?", want: IntentBusinessHours},
		{name: "confirm", message: "confirmado, estarei aí", want: IntentConfirm},
		{name: "cancel keyword", message: "preciso desmarcar", want: IntentCancel},
		{name: "cancel structured date", message: "cancelar 12/05", want: IntentCancel},
		{name: "cancel structured uuid", message: "cancelar 0b6a7c2d-1234-4abc-8def-000011112222", want: IntentCancel},
		{name: "reschedule", message: "dá pra remarcar pra sexta?", want: IntentReschedule},
		{name: "modify appointment", message: "quero modificar a reserva", want: IntentModifyAppointment},
		{name: "policies", message: "qual a política de reembolso?", want: IntentPolicies},
		{name: "handoff", message: "quero falar com um atendente", want: IntentHandoff},
		{name: "wrong number", message: "desculpa, foi engano", want: IntentWrongNumber},
		{name: "test message", message: "testando", want: IntentTestMessage},
		{name: "booking abandoned", message: "deixa pra lá, depois eu vejo", want: IntentBookingAbandoned},
		{name: "noshow followup", message: "não consegui comparecer ontem", want: IntentNoshowFollowup},
		{name: "diacritics are irrelevant", message: "QUANTO CUSTA?", want: IntentPricing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := detector.DetectPrimaryIntent(ctx, tt.message)
			if !ok {
				t.Fatalf("DetectPrimaryIntent(%q) matched nothing, want %s", tt.message, tt.want)
			}
			if got != tt.want {
				t.Errorf("DetectPrimaryIntent(%q) = %s, want %s", tt.message, got, tt.want)
			}
		})
	}
}

// Confirmation must outrank cancellation: "confirmo o cancelamento" confirms.
func TestDetectIntentsConfirmOutranksCancel(t *testing.T) {
	detector := NewIntentDetector(nil, nil)
	intents := detector.DetectIntents(context.Background(), "confirmo o cancelamento")

	if len(intents) < 2 {
		t.Fatalf("expected confirm and cancel to both match, got %v", intents)
	}
	if intents[0] != IntentConfirm {
		t.Errorf("first intent = %s, want %s", intents[0], IntentConfirm)
	}
	if intents[1] != IntentCancel {
		t.Errorf("second intent = %s, want %s", intents[1], IntentCancel)
	}
}

func TestDetectIntentsPriorityOrder(t *testing.T) {
	detector := NewIntentDetector(nil, nil)
	intents := detector.DetectIntents(context.Background(), "bom dia, quanto custa e qual o endereço?")

	want := []IntentKey{IntentGreeting, IntentPricing, IntentAddress}
	if !reflect.DeepEqual(intents, want) {
		t.Errorf("DetectIntents = %v, want %v", intents, want)
	}
}

// No fallback intent is ever synthesized: unrelated text matches nothing.
func TestDetectIntentsNoMatch(t *testing.T) {
	detector := NewIntentDetector(nil, nil)
	ctx := context.Background()

	intents := detector.DetectIntents(ctx, "xyz random unrelated text")
	if len(intents) != 0 {
		t.Fatalf("expected no intents, got %v", intents)
	}

	key, ok := detector.DetectPrimaryIntent(ctx, "xyz random unrelated text")
	if ok {
		t.Errorf("DetectPrimaryIntent matched %s on unrelated text", key)
	}
}

func TestDetectIntentsDeterministic(t *testing.T) {
	detector := NewIntentDetector(nil, nil)
	ctx := context.Background()
	message := "bom dia, preciso desmarcar e remarcar 12/05"

	first := detector.DetectIntents(ctx, message)
	for i := 0; i < 10; i++ {
		if got := detector.DetectIntents(ctx, message); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %v, first run produced %v", i, got, first)
		}
	}
}

func TestIntentKeysReturnsCopy(t *testing.T) {
	keys := IntentKeys()
	if len(keys) != 18 {
		t.Fatalf("expected 18 intent keys, got %d", len(keys))
	}
	keys[0] = IntentCancel
	if fresh := IntentKeys(); fresh[0] != IntentGreeting {
		t.Error("mutating the returned slice leaked into the detector configuration")
	}
}
