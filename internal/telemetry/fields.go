package telemetry

// Field names reported by the simulator's data plugin. The set varies per
// locomotive; these are the ones the engine itself reads. Profile mappings
// address everything else.
const (
	FieldSimulationTime    = "SimulationTime"
	FieldCurrentSpeed      = "CurrentSpeed" // metres per second, signed
	FieldSpeedoType        = "SpeedoType"   // 1 = MPH, 2 = KPH
	FieldCurrentLimit      = "CurrentSpeedLimit"
	FieldNextLimitSpeed    = "NextSpeedLimitSpeed"
	FieldNextLimitDistance = "NextSpeedLimitDistance"
	FieldCurvatureActual   = "CurvatureActual"
	FieldGradient          = "Gradient"
	FieldTrainLength       = "TrainLength"
	FieldTrainMass         = "TrainMass"
	FieldLocoName          = "LocoName"
	FieldScenarioName      = "ScenarioName"
	FieldRouteName         = "RouteName"
)
