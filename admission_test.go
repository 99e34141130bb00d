package http2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdmissionQueueTryConsumeRequiresEmptyBacklog(t *testing.T) {
	q := newAdmissionQueue()
	require.False(t, q.TryConsume(), "no credits yet")

	q.Grant(1)
	require.True(t, q.TryConsume())
	require.Equal(t, 0, q.Credits())
}

func TestAdmissionQueueTryConsumeRefusesWithBacklog(t *testing.T) {
	q := newAdmissionQueue()
	ctx := &Ctx{}
	q.Submit(ctx)

	q.Grant(5) // released straight to the pending request, not left as spendable credit
	require.False(t, q.TryConsume())
}

func TestAdmissionQueueGrantReleasesFIFOOrder(t *testing.T) {
	q := newAdmissionQueue()
	a, b, c := &Ctx{}, &Ctx{}, &Ctx{}
	q.Submit(a)
	q.Submit(b)
	q.Submit(c)

	released := q.Grant(2)
	require.Equal(t, []*Ctx{a, b}, released)
	require.Equal(t, 1, q.Len())
	require.Equal(t, 0, q.Credits())
}

func TestAdmissionQueueGrantNegativeClampsToZero(t *testing.T) {
	q := newAdmissionQueue()
	q.Grant(3)
	require.Equal(t, 3, q.Credits())

	released := q.Grant(-10)
	require.Nil(t, released)
	require.Equal(t, 3, q.Credits(), "a negative grant must not remove already-banked credit")
}

func TestAdmissionQueueCancelRemovesPendingWithoutSpendingCredit(t *testing.T) {
	q := newAdmissionQueue()
	a, b := &Ctx{}, &Ctx{}
	q.Submit(a)
	q.Submit(b)

	require.True(t, q.Cancel(a))
	require.Equal(t, 1, q.Len())
	require.False(t, q.Cancel(a), "canceling twice reports not-found the second time")

	released := q.Grant(5)
	require.Equal(t, []*Ctx{b}, released)
}

func TestAdmissionQueueGrantExcessCreditCarriesForward(t *testing.T) {
	q := newAdmissionQueue()
	a := &Ctx{}
	q.Submit(a)

	released := q.Grant(3)
	require.Equal(t, []*Ctx{a}, released)
	require.Equal(t, 2, q.Credits(), "unused credit beyond the backlog stays banked")
}
