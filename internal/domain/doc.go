// Package domain models humanitarian-aid need reports and volunteer
// location pings.
//
// # Data Source
//
// Need reports originate from a community-maintained spreadsheet published
// as CSV. Column headers are free text chosen by the sheet maintainers; only
// a small set of columns is meaningful to the service (id, lat, lon, status,
// priority, district, village) and everything else is carried through
// verbatim, in sheet order, for display. A secondary villages CSV provides
// fallback coordinates keyed by village name.
//
// # Coordinate Conventions
//
// Coordinates are WGS-84 decimal degrees. A record with a missing,
// non-numeric, or zero latitude/longitude is not mappable: it still appears
// in the card list but produces no pin and no polygon. Missing coordinates
// are backfilled in two passes before that verdict: first from a sibling
// record of the same (district, village) pair that does have coordinates,
// then from the villages lookup by village name alone.
//
// # Status and Priority
//
// Status is free text; four values are recognized:
//
//	pending            -> red    #e74c3c
//	completed          -> green  #2ecc71
//	volunteer-en-route -> blue   #3498db
//	volunteer-visited  -> purple #9b59b6
//	anything else      -> gray   #95a5a6
//
// A non-empty priority overrides the status color with the urgent color
// (#000000) unless the status is completed: a completed report is done no
// matter how urgent it once was.
//
// # Volunteer Pings
//
// Pings arrive as JSON from the location API or as CSV from the fallback
// feeds, with inconsistent field spellings (lat vs latitude, phone_number vs
// phoneNumber, timestamp vs created_at). Parsing tolerates all of them. A
// ping with a zero or non-numeric coordinate is discarded outright; the
// working set only ever holds pings younger than [MaxPingAge] (strictly — a
// ping aged exactly six hours is out).
package domain
