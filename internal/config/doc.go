// Package config resolves the hyperparameters of a model family.
//
// A Resolver starts from the family's schema defaults, optionally binds a
// flat key/value file on top of them, and finally replaces input_dim with the
// shape derived from the dataset. The file format is chosen by extension;
// JSON and YAML loaders are built in, and other formats (such as HCL) plug in
// through the Loader interface.
package config
