package flow

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/m3rciful/intakebot/internal/session"
)

// Stages of every flow. Each stage belongs to exactly one flow.
const (
	StageFullName  session.Stage = "full_name"
	StageBirthDate session.Stage = "birth_date"
	StagePhone     session.Stage = "phone"

	StageRequestType       session.Stage = "request_type"
	StageRequestScreenshot session.Stage = "request_screenshot"
	StageRequestOptions    session.Stage = "request_options"

	StageBroadcastMessage session.Stage = "broadcast_message"
	StageBroadcastConfirm session.Stage = "broadcast_confirm"
)

// Event is a transition trigger within a graph.
type Event string

const (
	EvRegister          Event = "register"
	EvNameAccepted      Event = "name_accepted"
	EvBirthDateAccepted Event = "birth_date_accepted"
	EvPhoneAccepted     Event = "phone_accepted"

	EvNewRequest         Event = "new_request"
	EvTypeChosen         Event = "type_chosen"
	EvScreenshotAttached Event = "screenshot_attached"
	EvScreenshotSkipped  Event = "screenshot_skipped"
	EvConfirmed          Event = "confirmed"

	EvCompose       Event = "compose"
	EvDraftComposed Event = "draft_composed"
	EvSent          Event = "sent"

	EvCancel Event = "cancel"
)

// Graph is the declared transition table of one flow.
type Graph struct {
	name   string
	events fsm.Events
	stages map[session.Stage]struct{}
}

func newGraph(name string, events ...fsm.EventDesc) *Graph {
	g := &Graph{name: name, events: events, stages: make(map[session.Stage]struct{})}
	for _, ev := range events {
		for _, src := range ev.Src {
			g.stages[session.Stage(src)] = struct{}{}
		}
		g.stages[session.Stage(ev.Dst)] = struct{}{}
	}
	delete(g.stages, session.StageIdle)
	return g
}

// Name identifies the flow in logs.
func (g *Graph) Name() string { return g.name }

// Owns reports whether stage is a non-idle stage of this flow.
func (g *Graph) Owns(stage session.Stage) bool {
	_, ok := g.stages[stage]
	return ok
}

// Next returns the stage reached from "from" by ev, or an error if the graph
// declares no such move.
func (g *Graph) Next(ctx context.Context, from session.Stage, ev Event) (session.Stage, error) {
	if from == "" {
		from = session.StageIdle
	}
	m := fsm.NewFSM(string(from), g.events, nil)
	if err := m.Event(ctx, string(ev)); err != nil {
		return from, fmt.Errorf("%s flow: %s from %s: %w", g.name, ev, from, err)
	}
	return session.Stage(m.Current()), nil
}

func stages(s ...session.Stage) []string {
	out := make([]string, len(s))
	for i, st := range s {
		out[i] = string(st)
	}
	return out
}

func edge(ev Event, dst session.Stage, src ...session.Stage) fsm.EventDesc {
	return fsm.EventDesc{Name: string(ev), Src: stages(src...), Dst: string(dst)}
}

// RegistrationGraph builds the registration flow. Mid-flow cancel exists only
// when allowCancel is set.
func RegistrationGraph(allowCancel bool) *Graph {
	events := []fsm.EventDesc{
		edge(EvRegister, StageFullName, session.StageIdle),
		edge(EvNameAccepted, StageBirthDate, StageFullName),
		edge(EvBirthDateAccepted, StagePhone, StageBirthDate),
		edge(EvPhoneAccepted, session.StageIdle, StagePhone),
	}
	if allowCancel {
		events = append(events, edge(EvCancel, session.StageIdle, StageFullName, StageBirthDate, StagePhone))
	}
	return newGraph("registration", events...)
}

// RequestGraph builds the request submission flow.
func RequestGraph() *Graph {
	return newGraph("request",
		edge(EvNewRequest, StageRequestType, session.StageIdle),
		edge(EvTypeChosen, StageRequestScreenshot, StageRequestType),
		edge(EvScreenshotAttached, StageRequestOptions, StageRequestScreenshot),
		edge(EvScreenshotSkipped, StageRequestOptions, StageRequestScreenshot),
		edge(EvConfirmed, session.StageIdle, StageRequestOptions),
		edge(EvCancel, session.StageIdle, StageRequestType, StageRequestScreenshot, StageRequestOptions),
	)
}

// BroadcastGraph builds the admin broadcast composition flow.
func BroadcastGraph() *Graph {
	return newGraph("broadcast",
		edge(EvCompose, StageBroadcastMessage, session.StageIdle),
		edge(EvDraftComposed, StageBroadcastConfirm, StageBroadcastMessage),
		edge(EvSent, session.StageIdle, StageBroadcastConfirm),
		edge(EvCancel, session.StageIdle, StageBroadcastMessage, StageBroadcastConfirm),
	)
}
