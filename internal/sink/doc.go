// Package sink delivers the resource URLs produced by a crawl to their
// destination. The crawl engine has no contract with this package beyond
// producing a correct, deduplicated set of absolute URLs; everything
// side-effectful about resources (printing, filename derivation, file
// transfer) lives here.
package sink
