// Package ops holds whole-mesh operations on flat meshes: measures,
// conversion to tetrahedra and extrusion.
package ops
