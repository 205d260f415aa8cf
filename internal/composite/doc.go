// Package composite provides per-pixel colour operators, mask generators
// and the operators that combine images through masks.
//
// Every function reads explicit inputs and writes an explicit output image,
// which is resized as needed. Unless noted otherwise the output may be the
// same image as an input.
//
// A mask is an image whose alpha channel carries a weight in [0, 1]; its
// RGB channels are zero and are ignored by consumers.
package composite
