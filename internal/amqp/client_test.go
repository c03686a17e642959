package amqp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// fakeAcknowledger records ack/nack decisions made by the consume loop.
type fakeAcknowledger struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []nackCall
}

type nackCall struct {
	tag     uint64
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked = append(f.nacked, nackCall{tag: tag, requeue: requeue})
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func delivery(ack *fakeAcknowledger, tag uint64, body []byte) amqp091.Delivery {
	return amqp091.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: body}
}

func TestConsumeLoopAcksHandledMessages(t *testing.T) {
	ack := &fakeAcknowledger{}
	body, err := NewLedgerEventMessage(EventTransactionCreated, 7).ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	msgs := make(chan amqp091.Delivery, 1)
	msgs <- delivery(ack, 1, body)
	close(msgs)

	var handled []*LedgerEventMessage
	err = consumeLoop(context.Background(), msgs, func(msg *LedgerEventMessage) error {
		handled = append(handled, msg)
		return nil
	})
	if err == nil {
		t.Fatal("expected channel-closed error after draining")
	}

	if len(handled) != 1 || handled[0].Event != EventTransactionCreated || handled[0].ID != 7 {
		t.Fatalf("handled = %+v, want one transaction.created for id 7", handled)
	}
	if len(ack.acked) != 1 || ack.acked[0] != 1 {
		t.Errorf("acked = %v, want [1]", ack.acked)
	}
	if len(ack.nacked) != 0 {
		t.Errorf("nacked = %v, want none", ack.nacked)
	}
}

func TestConsumeLoopDeadLettersUnparseableMessages(t *testing.T) {
	ack := &fakeAcknowledger{}
	msgs := make(chan amqp091.Delivery, 1)
	msgs <- delivery(ack, 3, []byte("not json"))
	close(msgs)

	err := consumeLoop(context.Background(), msgs, func(msg *LedgerEventMessage) error {
		t.Fatal("handler called for unparseable message")
		return nil
	})
	if err == nil {
		t.Fatal("expected channel-closed error after draining")
	}

	if len(ack.nacked) != 1 || ack.nacked[0].tag != 3 {
		t.Fatalf("nacked = %v, want tag 3", ack.nacked)
	}
	if ack.nacked[0].requeue {
		t.Error("unparseable message was requeued; it can never succeed")
	}
	if len(ack.acked) != 0 {
		t.Errorf("acked = %v, want none", ack.acked)
	}
}

func TestConsumeLoopRequeuesOnHandlerError(t *testing.T) {
	ack := &fakeAcknowledger{}
	body, err := NewLedgerEventMessage(EventTransactionDeleted, 9).ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	msgs := make(chan amqp091.Delivery, 1)
	msgs <- delivery(ack, 5, body)
	close(msgs)

	err = consumeLoop(context.Background(), msgs, func(msg *LedgerEventMessage) error {
		return errors.New("downstream unavailable")
	})
	if err == nil {
		t.Fatal("expected channel-closed error after draining")
	}

	if len(ack.nacked) != 1 || ack.nacked[0].tag != 5 {
		t.Fatalf("nacked = %v, want tag 5", ack.nacked)
	}
	if !ack.nacked[0].requeue {
		t.Error("handler failure should requeue for retry")
	}
}

func TestConsumeLoopStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msgs := make(chan amqp091.Delivery)
	done := make(chan error, 1)
	go func() {
		done <- consumeLoop(ctx, msgs, func(msg *LedgerEventMessage) error { return nil })
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("consume loop did not stop on cancel")
	}
}
