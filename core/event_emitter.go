package conversation

import "github.com/koscakluka/agui-core/core/events"

type eventEmitter func(events.Event)

type callbacks struct {
	onEvent        func(events.Event)
	onTurnFinished func(turnID string, outcome Outcome, err error)
}

func newCallbackEventEmitter(cb callbacks) eventEmitter {
	return func(event events.Event) {
		if cb.onEvent != nil {
			cb.onEvent(event)
		}
		if cb.onTurnFinished == nil {
			return
		}

		switch typedEvent := event.(type) {
		case events.TurnCompleted:
			cb.onTurnFinished(typedEvent.TurnID, OutcomeFinished, nil)
		case events.TurnCancelled:
			cb.onTurnFinished(typedEvent.TurnID, OutcomeCancelled, nil)
		case events.TurnFailed:
			cb.onTurnFinished(typedEvent.TurnID, OutcomeFailed, typedEvent.Err)
		}
	}
}
