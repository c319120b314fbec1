// Package phicore stores laser beam metrology data in HDF5 containers and
// maps them onto labeled N-dimensional arrays.
//
// A container holds three top-level groups. /data keeps the measured or
// simulated variables, each a 2-D or 3-D numeric array whose last axis is
// temporal or spectral. /scales keeps one coordinate vector per variable
// axis, named <variable>_<axis> and annotated with a unit. /diag holds
// auxiliary arrays. The root carries the format revision and a creation
// timestamp.
//
// Basic usage:
//
//	f, err := phicore.Open("run-{date}.h5", phicore.ModeCreate)
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
//	err = f.Write(&phicore.View{
//		Name:   "Sxyw",
//		Dims:   []phicore.Axis{phicore.AxisX, phicore.AxisY, phicore.AxisW},
//		Data:   phicore.NewArray(samples, 32, 32, 64),
//		Coords: coords,
//	}, phicore.WithCompression("deflate", 4))
//
// Reading returns the same view, with the stored units in ScaleUnits:
//
//	v, err := f.Read("Sxyw")
package phicore
