// Package http provides HTTP handlers and middleware for the matching API.
//
// Every endpoint identifies the caller through the X-User-ID header, attached
// to the request context by the RequirePrincipal middleware. The router
// exposes:
//   - PUT /availability, GET /availability: save and read the caller's weekly
//     availability. Payloads exchange the `availabilityRequest` / `profileDTO`
//     shapes defined in availability_handler.go.
//   - POST /matches: compute common free slots for the caller and the
//     requested friends. Body: {"friend_ids","days_from_now","window_days",
//     "duration_minutes"}. The response carries the match status, the
//     recommended slot with its confidence, ranked alternatives, and a
//     per-participant report.
//   - GET /friends/available-now: classify every friend as available, busy,
//     or unknown right now, with reason codes for the non-available buckets.
//   - POST /bookings: turn an agreed slot into a calendar event with a join
//     link. Body: {"friend_id","start","end","summary"}.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
