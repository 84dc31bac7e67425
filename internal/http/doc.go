// Package http exposes the occupancy analytics over a read-only JSON API.
//
// The router mounts everything under /api/v1:
//   - GET /health: {"status":"ok"}, or 503 when the store cannot be pinged.
//   - GET /bounds: {"min_date","max_date"} of the loaded bookings. 404 when
//     nothing has been loaded.
//   - GET /locations/countries, /locations/cities?country=,
//     /locations/buildings?city=: {"items":[...]} for the location pickers.
//   - GET /summary: headline metrics, see summaryResponse.
//   - GET /occupancy?granularity=daily|weekly|monthly: distinct confirmed
//     occupants per period.
//   - GET /occupancy/day-of-week: average daily occupancy per weekday.
//   - GET /space-types: bookings per space type, highest first.
//
// Every query endpoint accepts the filter parameters from and to
// (YYYY-MM-DD), country, city and building. Malformed parameters produce a
// 422 with per-field messages under "errors".
package http
