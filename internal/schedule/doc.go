// Package schedule holds the exam-day rules: which calendar days accept
// bookings, how many candidates a day holds, which slots remain free and
// whether a booking respects the lead time. Every function is pure.
//
// Dates are YYYY-MM-DD keys. A key names a civil date, so weekday and
// day arithmetic are done in UTC; only SlotDateTime needs a location.
package schedule
