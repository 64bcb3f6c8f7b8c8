// Package hub fans live hatch records out to websocket subscribers and
// optionally replays the current record snapshot to each new subscriber.
package hub
