// Package view holds the dashboard presentations of the published dataset.
// Each view is a dataset.Observer that rebuilds its own state from every
// published snapshot; none of them read from the others.
package view
