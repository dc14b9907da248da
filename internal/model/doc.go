// Package model holds the cloud data shapes cached locally: nodes and their
// devices, node groups, sharing requests, cloud responses and notification
// records. JSON tags follow the cloud wire format.
package model
