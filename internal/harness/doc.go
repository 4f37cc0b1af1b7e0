// Package harness runs console scenarios against a scripted backend.
//
// A scenario starts a real core wired to an in-process HTTP backend whose
// replies are scripted per route, drives it through a list of operations,
// and checks what came out: the notifications the user would see, the
// requests the backend received, the final observable state and the
// operation journal.
//
// # Scenario Format
//
//	name: delete_conflict_aborts
//	description: "A conflict stops the batch without a reload"
//	setup:
//	  token: tok
//	  section: widgets
//	backend:
//	  - method: GET
//	    path: /api/v1beta1/system/config?*
//	    replies:
//	      - status: 200
//	        data: { spec: { restService: {}, securityContext: {} } }
//	flow:
//	  - op: start
//	  - op: delete
//	    section: widgets
//	    refs: [a, b]
//	    expect: { error: true }
//	assertions:
//	  - type: notifications
//	    messages: ["Resource is locked"]
//	  - type: request_count
//	    method: DELETE
//	    path: /api/v1beta1/widgets/b
//	    count: 0
//
// # Assertion Types
//
//   - notifications: the exact ordered list of notified messages
//   - notification_contains: some notification contains a substring
//   - request_count: a route was requested exactly N times
//   - request_order: routes were first requested in the given order
//   - final_state: subset match on the core's final state
//   - journal: exactly one journal entry matches where; subset match on expect
//
// # Deterministic Testing
//
// Request ids are fixed and sequence numbers come from a fresh logical clock,
// so the same scenario always produces the same trace. Traces are compared
// against golden files with RunWithGolden.
package harness
