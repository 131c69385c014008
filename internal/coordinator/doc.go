// Package coordinator drives the polling loop for one PetKit account.
//
// Each tick fetches the device roster, folds every entry into the
// device registry (creating devices on first sight, merging data into
// existing ones), then refreshes per-device detail concurrently. A
// failure on one device never blocks the others; the next tick retries
// everything naturally.
package coordinator
