// Package events defines the state-change events pushed to observers.
//
// Event kinds:
//   - initial_state: full incident and responder lists, sent once on registration
//   - new_incident: an incident was created by a first-contact report
//   - responder_update: the fleet changed (dispatch, reset or initialization)
//   - incidents_cleared: every active incident was cleared
//   - pong: reply to a websocket client ping
package events
