// Package augment implements the building blocks of a data-augmentation
// pipeline: relocating nested batches of tensors, converting between bounding
// boxes and label maps, and sampling random transform parameters.
//
// All functions are synchronous: they return once the result is complete. Label map
// conversions work on host memory; inputs on other devices are downloaded and
// results are placed back on the input's device.
package augment
