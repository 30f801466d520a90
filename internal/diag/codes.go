package diag

// Error code constants, organized by the taxonomy in spec.md §6. Structural
// typing/borrow rule ids (the "*-Err"/"*-Chk*" family) are left as bare
// strings at their call sites, matching spec.md's description of them as
// "rule anchors" rather than a fixed enumerable set — but the handful that
// appear in spec.md's worked examples (§8) are named here so tests can refer
// to them without repeating literals.
const (
	// Concurrency (E-CON-01xx: parallel/spawn/wait/dispatch).
	ConDomainNotExecutionDomain = "E-CON-0101"
	ConWaitWhileKeysHeld        = "E-CON-0110"
	ConUseAfterMoveAcrossSpawn  = "E-CON-0122"
	ConVarCaptureWithoutShared  = "E-CON-0131"
	ConGPUSharedCapture         = "E-CON-0150"
	ConGPUHeapPointerCapture    = "E-CON-0151"
	ConGPUHostPointerCapture    = "E-CON-0152"
	ConGPUNestedParallel        = "E-CON-0153"

	// Async/yield/race/all (E-CON-02xx).
	ConYieldOutsideAsync = "E-CON-0201"
	ConSyncInsideAsync   = "E-CON-0202"
	ConRaceAllShapeErr   = "E-CON-0203"

	// Module/init (E-MOD).
	ModInitCycle = "E-MOD-1401"

	// Project/filesystem ordering (E-PRJ).
	PrjNonDeterministicOrder = "E-PRJ-0301"

	// Init planner (E-INIT).
	InitModuleNotFound = "E-INIT-0001"

	// Attribute misuse (E-ATTR).
	AttrUnknown = "E-ATTR-0001"

	// Static verification, external (E-VER): referenced, never produced here.
	VerUnimplemented = "E-VER-0001"
)
