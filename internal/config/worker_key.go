package config

type WorkerKeyStruct struct {
	PaperSnapshotQueue string
	BlockSnapshotQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PaperSnapshotQueue: "paper_snapshot_queue",
	BlockSnapshotQueue: "block_snapshot_queue",
}
