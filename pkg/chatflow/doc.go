/*
Package chatflow implements a conversational flow engine for
business-messaging chatbots.

# Overview

chatflow models a chatbot conversation as a directed graph of typed
nodes (send text, send media, present buttons, call an API, branch,
assign a human agent) and executes it one customer message at a time.
It enforces messaging-platform session windows (WhatsApp 24h,
Instagram/Messenger/Facebook 7 days) so bots never attempt free-form
replies after the window closes.

The engine deliberately owns no wire protocols: real side effects go
through an ActionSink the caller implements, and inbound messages
arrive through the inbound package. That keeps the engine embeddable
behind any transport.

# Authoring

Build a graph node by node; every edge is validated eagerly against
the flow rules (Start leads only to message nodes, terminal nodes have
no outgoing edges, no cycles among non-terminal nodes):

	g := chatflow.NewGraph("welcome", "greets new customers")
	start, _ := g.AddNode(chatflow.KindStart, nil, chatflow.Position{})
	hi, _ := g.AddNode(chatflow.KindText,
	    map[string]any{"body": "Hi! How can we help?"}, chatflow.Position{})
	if err := g.AddEdge(start, hi, chatflow.DefaultLabel); err != nil {
	    log.Fatal(err)
	}

Valid graphs serialize to a stable JSON document and round-trip
through the template store (see the template package).

# Execution

Each session (platform + counterpart) owns a Cursor and a session
window timer. The Interpreter advances the cursor through the graph,
parking on Button/List nodes until the customer picks:

	mgr := session.NewManager()
	sess := mgr.Arm(session.Key{Platform: session.WhatsApp,
	    Counterpart: "+15550001111"}, time.Now())

	cur, _ := chatflow.NewCursor(g, sess)
	interp := chatflow.NewInterpreter(sink)
	at, err := interp.Run(ctx, cur) // runs until parked or done

	// customer tapped "Sales"
	interp.Resume(ctx, cur, "Sales")
	interp.Run(ctx, cur)

Sessions never share state: cursors and timers are fully independent,
and one session's failure cannot touch another's.
*/
package chatflow
