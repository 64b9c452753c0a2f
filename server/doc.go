// Package server implements the protocol registry: the catalogs of
// callable tools and readable resources, and the dispatcher that
// answers initialize, tools/list, tools/call, resources/list,
// resources/read, and ping.
//
// Catalogs are built at server construction and treated as immutable
// after publish; list operations always return them in registration
// order.
package server
