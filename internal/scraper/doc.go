// Package scraper fetches HLTV pages and exposes them through a small query layer.
//
// Fetcher issues strictly sequential GET requests through a colly collector,
// sleeping a randomized delay before each one. A non-200 response is reported as a
// *TransportError. Successful responses are parsed into a Page, whose
// One/All/Text/Attr helpers are the only place the extractors touch goquery. A
// selector that matches nothing surfaces as a *MissingElementError.
package scraper
