package accumulator

// Well-known state keys shared between page processors (writers) and metric
// computers (readers). Names follow "<type>.<field>".
const (
	// Asset hierarchy and classification.
	KeyAssetParent        = "asset.parent_of"
	KeyAssetCritical      = "asset.critical_ids"
	KeyAssetLabels        = "asset.labels"
	KeyAssetWithDesc      = "asset.with_description"
	KeyAssetWithMetadata  = "asset.with_metadata"
	KeyAssetDanglingLinks = "asset.dangling_parent_refs"

	// Equipment.
	KeyEquipmentAsset      = "equipment.asset_links"
	KeyEquipmentConfidence = "equipment.link_confidence"
	KeyEquipmentTypes      = "equipment.types"
	KeyEquipmentLinked     = "equipment.linked_ids"

	// Time series gap accounting. Sums across series, divided only at
	// section-computation time.
	KeyTSSpanSum    = "ts.span_sum"
	KeyTSGapSum     = "ts.gap_sum"
	KeyTSGapCount   = "ts.gap_count"
	KeyTSMeasured   = "ts.measured"
	KeyTSSkipped    = "ts.skipped_short"
	KeyTSWithGaps   = "ts.with_gaps"
	KeyTSUnits      = "ts.units"
	KeyTSAssetLinks = "ts.asset_links"
	KeyTSString     = "ts.string_valued"

	// Files.
	KeyFileMime       = "file.mime_types"
	KeyFileAssetLinks = "file.asset_links"
	KeyFileUploaded   = "file.uploaded"
	KeyFileSizeBytes  = "file.size_bytes"

	// Annotations.
	KeyAnnotationStatus     = "annotation.status"
	KeyAnnotationConfidence = "annotation.confidence"
	KeyAnnotationTargets    = "annotation.target_links"
	KeyAnnotatedFiles       = "annotation.annotated_files"

	// 3D object mappings.
	KeyThreeDModels     = "threed.models"
	KeyThreeDAssets     = "threed.mapped_assets"
	KeyThreeDNodeCount  = "threed.node_mappings"
	KeyThreeDAssetLinks = "threed.asset_links"

	// Maintenance / work orders.
	KeyMaintStatus          = "maint.status"
	KeyMaintPriority        = "maint.priority"
	KeyMaintAssets          = "maint.assets_with_records"
	KeyMaintAssetLinks      = "maint.asset_links"
	KeyMaintResolutionHrs   = "maint.resolution_hours"
	KeyMaintExecTotal       = "maint.executions_total"
	KeyMaintExecStatus      = "maint.execution_status"
	KeyMaintExecFailedFetch = "maint.execution_fetch_failures"
)
