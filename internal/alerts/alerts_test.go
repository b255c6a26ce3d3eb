package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testBudget(id, category, budgeted string) model.Budget {
	return model.Budget{
		ID:             id,
		Category:       category,
		Currency:       "USD",
		Period:         model.BudgetPeriodMonthly,
		BudgetedAmount: d(budgeted),
	}
}

func newTestEngine(opts ...Option) (*Engine, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewEngine(NewDeduplicator(DefaultCooldown, clock.Now), opts...), clock
}

func TestEngine_Evaluate(t *testing.T) {
	withThreshold := testBudget("b3", "Fun", "100")
	withThreshold.AlertThreshold = decimal.NewNullDecimal(d("50"))

	tests := []struct {
		name     string
		budget   model.Budget
		spending string
		want     model.AlertType
	}{
		{"below threshold", testBudget("b1", "Food", "200"), "100", ""},
		{"at default threshold", testBudget("b1", "Food", "200"), "160", model.AlertTypeThreshold},
		{"exactly budgeted", testBudget("b1", "Food", "200"), "200", model.AlertTypeThreshold},
		{"overspent wins", testBudget("b1", "Food", "200"), "250", model.AlertTypeOverspent},
		{"custom threshold", withThreshold, "55", model.AlertTypeThreshold},
		{"no spending", testBudget("b1", "Food", "200"), "0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine()
			got := engine.Evaluate([]model.Budget{tt.budget}, map[string]decimal.Decimal{
				tt.budget.Category: d(tt.spending),
			})

			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Type)
			assert.Equal(t, tt.budget.ID, got[0].BudgetID)
			assert.True(t, got[0].CurrentSpending.Equal(d(tt.spending)))
		})
	}
}

func TestEngine_EvaluateMissingCategoryCountsAsZero(t *testing.T) {
	engine, _ := newTestEngine()
	got := engine.Evaluate([]model.Budget{testBudget("b1", "Food", "200")}, nil)
	assert.Empty(t, got)
}

func TestEngine_Dedup(t *testing.T) {
	engine, clock := newTestEngine()
	budgets := []model.Budget{testBudget("b1", "Food", "200")}
	spending := map[string]decimal.Decimal{"Food": d("170")}

	first := engine.Evaluate(budgets, spending)
	require.Len(t, first, 1)
	assert.Equal(t, clock.now, first[0].RaisedAt)

	clock.Advance(10 * time.Minute)
	assert.Empty(t, engine.Evaluate(budgets, spending), "second evaluation within cooldown")

	// A different alert type for the same budget is not suppressed.
	over := engine.Evaluate(budgets, map[string]decimal.Decimal{"Food": d("210")})
	require.Len(t, over, 1)
	assert.Equal(t, model.AlertTypeOverspent, over[0].Type)

	clock.Advance(21 * time.Minute)
	assert.Len(t, engine.Evaluate(budgets, spending), 1, "cooldown expired")
}

func TestDeduplicator_RecordAndShouldAlert(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	dedup := NewDeduplicator(DefaultCooldown, clock.Now)

	assert.True(t, dedup.ShouldAlert("b1", model.AlertTypeThreshold))
	dedup.Record("b1", model.AlertTypeThreshold)
	assert.False(t, dedup.ShouldAlert("b1", model.AlertTypeThreshold))
	assert.True(t, dedup.ShouldAlert("b1", model.AlertTypeOverspent), "other type")
	assert.True(t, dedup.ShouldAlert("b2", model.AlertTypeThreshold), "other budget")

	clock.Advance(DefaultCooldown)
	assert.False(t, dedup.ShouldAlert("b1", model.AlertTypeThreshold), "still cooling down at the boundary")

	clock.Advance(time.Second)
	assert.True(t, dedup.ShouldAlert("b1", model.AlertTypeThreshold))

	dedup.Record("b1", model.AlertTypeThreshold)
	assert.False(t, dedup.ShouldAlert("b1", model.AlertTypeThreshold), "recording again restarts the cooldown")
	assert.Equal(t, 1, dedup.Size())
}

func TestEngine_DedupReset(t *testing.T) {
	engine, _ := newTestEngine()
	budgets := []model.Budget{testBudget("b1", "Food", "200")}
	spending := map[string]decimal.Decimal{"Food": d("300")}

	require.Len(t, engine.Evaluate(budgets, spending), 1)
	assert.Equal(t, 1, engine.Deduplicator().Size())

	engine.Deduplicator().Reset()
	assert.Len(t, engine.Evaluate(budgets, spending), 1)
}

func TestEngine_WithDefaultThreshold(t *testing.T) {
	engine, _ := newTestEngine(WithDefaultThreshold(d("90")))
	budgets := []model.Budget{testBudget("b1", "Food", "100")}

	assert.Empty(t, engine.Evaluate(budgets, map[string]decimal.Decimal{"Food": d("85")}))
	assert.Len(t, engine.Evaluate(budgets, map[string]decimal.Decimal{"Food": d("95")}), 1)
}

func TestEngine_ProcessTransaction(t *testing.T) {
	budgets := []model.Budget{
		testBudget("b-food", "Food", "100"),
		testBudget("b-fun", "Fun", "100"),
	}
	spending := map[string]decimal.Decimal{"Food": d("120"), "Fun": d("150")}

	t.Run("expense with budget", func(t *testing.T) {
		engine, _ := newTestEngine()
		alert, ok := engine.ProcessTransaction(model.Transaction{Type: model.TransactionTypeExpense, Category: "Food"}, budgets, spending)
		require.True(t, ok)
		assert.Equal(t, "b-food", alert.BudgetID)
		assert.True(t, engine.Deduplicator().ShouldAlert("b-fun", model.AlertTypeOverspent), "other budgets are untouched")
	})

	t.Run("income is ignored", func(t *testing.T) {
		engine, _ := newTestEngine()
		_, ok := engine.ProcessTransaction(model.Transaction{Type: model.TransactionTypeIncome, Category: "Food"}, budgets, spending)
		assert.False(t, ok)
	})

	t.Run("category without budget", func(t *testing.T) {
		engine, _ := newTestEngine()
		_, ok := engine.ProcessTransaction(model.Transaction{Type: model.TransactionTypeExpense, Category: "Travel"}, budgets, spending)
		assert.False(t, ok)
	})
}

func TestStream_FanOut(t *testing.T) {
	stream := NewStream()
	a, cancelA := stream.Subscribe(4)
	b, cancelB := stream.Subscribe(4)
	defer cancelB()

	alert := model.Alert{BudgetID: "b1", Type: model.AlertTypeThreshold}
	require.NoError(t, stream.Publish(context.Background(), alert))

	assert.Equal(t, alert, <-a)
	assert.Equal(t, alert, <-b)

	cancelA()
	_, open := <-a
	assert.False(t, open)

	stream.Close()
	_, open = <-b
	assert.False(t, open)
}

func TestStream_FullSubscriberDoesNotBlock(t *testing.T) {
	stream := NewStream()
	ch, cancel := stream.Subscribe(1)
	defer cancel()

	alert := model.Alert{BudgetID: "b1"}
	require.NoError(t, stream.Publish(context.Background(), alert, alert, alert))
	assert.Len(t, ch, 1)
}

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	return m.Called(name, kind, durable, autoDelete, internal, noWait, args).Error(0)
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &mockChannel{}
	ch.On("ExchangeDeclare", "ledger", "direct", true, false, false, false, amqp091.Table(nil)).Return(nil)

	var published amqp091.Publishing
	ch.On("PublishWithContext", mock.Anything, "ledger", "budget.alerts", false, false, mock.AnythingOfType("amqp091.Publishing")).
		Run(func(args mock.Arguments) {
			published = args.Get(5).(amqp091.Publishing)
		}).
		Return(nil)

	p, err := NewAMQPPublisher(ch, "ledger", "budget.alerts")
	require.NoError(t, err)

	alert := model.Alert{
		BudgetID:        "b1",
		Category:        "Food",
		Currency:        "USD",
		Type:            model.AlertTypeOverspent,
		CurrentSpending: d("250"),
		BudgetedAmount:  d("200"),
	}
	require.NoError(t, p.Publish(context.Background(), alert))
	ch.AssertExpectations(t)

	assert.Equal(t, "application/json", published.ContentType)
	assert.Equal(t, amqp091.Persistent, published.DeliveryMode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(published.Body, &body))
	assert.Equal(t, "b1", body["budget_id"])
	assert.Equal(t, "overspent", body["type"])
	assert.Equal(t, "Food Budget Exceeded", body["title"])
	assert.Equal(t, "You've overspent by $50.00", body["message"])
}

func TestAMQPPublisher_Errors(t *testing.T) {
	t.Run("declare", func(t *testing.T) {
		ch := &mockChannel{}
		ch.On("ExchangeDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("channel closed"))

		_, err := NewAMQPPublisher(ch, "ledger", "budget.alerts")
		assert.ErrorContains(t, err, "declare exchange")
	})

	t.Run("publish", func(t *testing.T) {
		ch := &mockChannel{}
		ch.On("ExchangeDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("broker down"))

		p, err := NewAMQPPublisher(ch, "ledger", "budget.alerts")
		require.NoError(t, err)
		err = p.Publish(context.Background(), model.Alert{BudgetID: "b1"})
		assert.ErrorContains(t, err, "publish alert")
	})
}

type failingSink struct{ err error }

func (f failingSink) Publish(context.Context, ...model.Alert) error { return f.err }

func TestMultiSink(t *testing.T) {
	stream := NewStream()
	ch, cancel := stream.Subscribe(1)
	defer cancel()

	boom := errors.New("boom")
	err := MultiSink{failingSink{err: boom}, stream}.Publish(context.Background(), model.Alert{BudgetID: "b1"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, ch, 1, "later sinks still receive the alert")
}
