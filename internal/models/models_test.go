package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_Helpers(t *testing.T) {
	md := Metadata{
		"name":       " Alice ",
		"quantity":   "3",
		"qtyFloat":   "2.0",
		"totalPrice": "500",
		"bad":        "abc",
		"createdAt":  "2025-01-01T10:00:00Z",
	}

	t.Run("NilMetadata", func(t *testing.T) {
		var nilMD Metadata
		assert.Equal(t, "", nilMD.GetString("any"))
		assert.Equal(t, 0, nilMD.GetInt("any"))
		assert.Equal(t, 0.0, nilMD.GetFloat("any"))
		assert.True(t, nilMD.GetTime("any").IsZero())
	})

	t.Run("GetString", func(t *testing.T) {
		assert.Equal(t, "Alice", md.GetString("name"))
		assert.Equal(t, "", md.GetString("missing"))
	})

	t.Run("GetInt", func(t *testing.T) {
		assert.Equal(t, 3, md.GetInt("quantity"))
		assert.Equal(t, 2, md.GetInt("qtyFloat"))
		assert.Equal(t, 0, md.GetInt("bad"))
	})

	t.Run("GetFloat", func(t *testing.T) {
		assert.Equal(t, 500.0, md.GetFloat("totalPrice"))
		assert.Equal(t, 0.0, md.GetFloat("bad"))
	})

	t.Run("GetTime", func(t *testing.T) {
		assert.Equal(t, 2025, md.GetTime("createdAt").Year())
		assert.True(t, md.GetTime("bad").IsZero())
	})
}

func TestBookingFromSession(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	session := &CheckoutSession{
		ID:              "cs_1",
		CustomerEmail:   "fallback@x.com",
		PaymentStatus:   PaymentStatusPaid,
		PaymentIntentID: "pi_1",
		Metadata: Metadata{
			"email":        "a@x.com",
			"serviceTitle": "Wedding Decor",
			"totalPrice":   "500",
			"quantity":     "1",
		},
	}

	b := BookingFromSession(session, now)
	assert.Equal(t, "a@x.com", b.Email)
	assert.Equal(t, "Wedding Decor", b.ServiceTitle)
	assert.Equal(t, 500.0, b.TotalPrice)
	assert.Equal(t, "paid", b.PaymentStatus)
	assert.Equal(t, "pi_1", b.TransactionID)
	assert.True(t, b.Decorator.Unclaimed())
	assert.Equal(t, StageNone, b.Stage())
	for i := range b.BookingStatus {
		assert.Nil(t, b.BookingStatus[i])
	}

	session.Metadata["email"] = ""
	assert.Equal(t, "fallback@x.com", BookingFromSession(session, now).Email)
}

func TestCheckoutRequest(t *testing.T) {
	req := CheckoutRequest{Name: "A", Email: "a@x.com", Quantity: 2, TotalPrice: 19.99}
	assert.Equal(t, int64(1999), req.AmountCents())

	md := req.Metadata(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2", md["quantity"])
	assert.Equal(t, "19.99", md["totalPrice"])
	assert.Equal(t, "2025-01-01T00:00:00Z", md["createdAt"])
}

func TestStageTransitions(t *testing.T) {
	for code, want := range map[int]string{
		2: "Planning Phase",
		3: "Materials Prepared",
		4: "On the Way to Venue",
		5: "Setup in Progress",
		6: "Completed",
	} {
		stage, ok := StageForCode(code)
		require.True(t, ok, "code %d", code)
		assert.Equal(t, want, stage.Label())
		assert.Equal(t, code-1, int(stage))
	}

	for _, code := range []int{0, 1, 7, -1} {
		_, ok := StageForCode(code)
		assert.False(t, ok, "code %d", code)
	}

	assert.True(t, CanAdvance(StageNone, StageAssigned))
	assert.True(t, CanAdvance(StageAssigned, StagePlanning))
	assert.False(t, CanAdvance(StageAssigned, StageMaterials))
	assert.False(t, CanAdvance(StagePlanning, StagePlanning))
	assert.False(t, CanAdvance(StageCompleted, StageCompleted))
	assert.True(t, StageCompleted.Terminal())
}

func TestStageList_Set(t *testing.T) {
	var list StageList
	now := time.Now().UTC()

	require.Error(t, list.Set(StagePlanning, now))
	require.NoError(t, list.Set(StageAssigned, now))
	require.NoError(t, list.Set(StagePlanning, now))
	assert.Error(t, list.Set(StagePlanning, now))
	assert.Error(t, list.Set(StageOnTheWay, now))
	assert.Equal(t, StagePlanning, list.Current())
	assert.Equal(t, "Planning Phase", list[StagePlanning].Status)
}

func TestBookingJSON(t *testing.T) {
	b := Booking{ID: "b1", TransactionID: "pi_1"}

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `null`, string(raw["decorator"]))
	assert.JSONEq(t, `[null,null,null,null,null,null]`, string(raw["bookingStatus"]))

	b.Decorator = DecoratorRef{State: DecoratorPending}
	data, err = json.Marshal(b)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"pending"`, string(raw["decorator"]))

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b.Decorator = DecoratorRef{State: DecoratorAssigned, Email: "d@x.com", Name: "Dee", AssignedAt: at}
	require.NoError(t, b.BookingStatus.Set(StageAssigned, at))
	data, err = json.Marshal(b)
	require.NoError(t, err)

	var decoded Booking
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Decorator.Assigned())
	assert.Equal(t, "d@x.com", decoded.Decorator.Email)
	assert.Equal(t, StageAssigned, decoded.Stage())
	assert.Equal(t, "Decorator Assigned", decoded.BookingStatus[0].Status)
}
