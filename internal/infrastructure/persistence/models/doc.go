// Package models holds the gorm rows behind the store repositories. Domain
// types carry no gorm tags; each row type converts to and from its domain
// counterpart with a ToDomain method and a ...FromDomain constructor.
//
// Orders, their line items, comments, history and payments live in order.go;
// packages and shipments in fulfillment.go; stock levels, tax rates,
// shipping quotes and store settings in store.go; relayed events in
// outbox.go.
package models
