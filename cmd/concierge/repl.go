// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/go-a2a/a2a-purchasing/orchestrator"
)

// router is the part of the orchestrator the REPL drives.
type router interface {
	ListRemoteAgents() []orchestrator.AgentInfo
	SendTask(ctx context.Context, agentName, text string, sess *orchestrator.Session) ([]string, error)
}

var _ router = (*orchestrator.Orchestrator)(nil)

// repl reads user turns line by line and routes them to remote agents.
//
// "@name text" addresses a remote explicitly; plain text continues the open
// task of the session.
type repl struct {
	router router
	sess   *orchestrator.Session
	out    io.Writer

	agent *color.Color
	warn  *color.Color
	fail  *color.Color
	hint  *color.Color
}

func newREPL(r router, sess *orchestrator.Session, out io.Writer) *repl {
	return &repl{
		router: r,
		sess:   sess,
		out:    out,
		agent:  color.New(color.FgCyan),
		warn:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed, color.Bold),
		hint:   color.New(color.FgHiBlack),
	}
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	r.printAgents()
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(r.out)
			return sc.Err()
		}
		if quit := r.handle(ctx, strings.TrimSpace(sc.Text())); quit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// handle processes one input line and reports whether the loop should stop.
func (r *repl) handle(ctx context.Context, line string) bool {
	switch {
	case line == "":
		return false
	case line == "/quit" || line == "/exit":
		return true
	case line == "/agents":
		r.printAgents()
		return false
	}

	name, text := "", line
	if rest, ok := strings.CutPrefix(line, "@"); ok {
		var found bool
		name, text, found = strings.Cut(rest, " ")
		text = strings.TrimSpace(text)
		if !found || text == "" {
			r.fail.Fprintln(r.out, "usage: @agent_name message")
			return false
		}
	} else {
		name = r.sess.CurrentAgent()
		if name == "" {
			r.warn.Fprintln(r.out, "No open order. Address a seller with @agent_name.")
			r.printAgents()
			return false
		}
	}

	lines, err := r.router.SendTask(ctx, name, text, r.sess)
	if err != nil {
		r.fail.Fprintf(r.out, "error: %v\n", err)
		return false
	}
	for _, l := range lines {
		r.agent.Fprintf(r.out, "%s: ", name)
		fmt.Fprintln(r.out, l)
	}
	if r.sess.Escalate {
		r.warn.Fprintf(r.out, "%s is waiting for your answer.\n", name)
	}
	return false
}

func (r *repl) printAgents() {
	agents := r.router.ListRemoteAgents()
	if len(agents) == 0 {
		r.warn.Fprintln(r.out, "No remote agents available.")
		return
	}
	r.hint.Fprintln(r.out, "Remote agents:")
	for _, a := range agents {
		r.hint.Fprintf(r.out, "  @%s  %s\n", a.Name, a.Description)
	}
}
