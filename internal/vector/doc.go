// Package vector is the small generic framework that format drivers plug into.
// It owns the open request, the dataset/layer/feature model, the driver
// interface and the process-wide driver registry. Drivers register themselves
// once and are then probed, in registration order, for every open request.
package vector
