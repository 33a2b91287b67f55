// Package dataset loads benchmark image datasets and enforces their contract
// before anything downstream sees them.
//
// A dataset family lives in <data_dir>/<family>/ as two NumPy archives,
// train_data.npz and eval_data.npz, each holding one array under the key
// "data" shaped (N, C, H, W) with integer pixels in [0, 255]. Loading divides
// every value by 255 and checks that both splits share the same (C, H, W).
package dataset
