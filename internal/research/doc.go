// Package research recovers condition information that is missing from the
// knowledge base by fetching and parsing live NHS condition pages, and feeds
// each new finding back into the store so the next identical query resolves
// locally.
//
// A Fetcher turns a query into an ordered list of candidate URLs (the slug
// plus locale spelling variants), tries them one at a time through a
// PageSource and stops at the first page that answers 200 and has a <main>
// region. Concurrent fetches for the same slug share one round of requests.
package research
