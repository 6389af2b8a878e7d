// Package formats provides readers and writers for the mesh interchange
// formats: the triangle-soup JSON record produced by the model loader and
// STL in both its ASCII and binary encodings.
package formats
