// Package minio stores catalog snapshots in S3-compatible object storage.
//
// A snapshot is a JSON object mapping collection names to document arrays,
// the same format the CLI accepts as a seed for its in-memory store. Query
// results exported with "querykit export" can therefore be replayed offline
// with "--memory --seed minio:<name>".
//
//	client, err := minio.NewClient(minio.Config{
//		Connection: minio.ConnectionConfig{
//			Endpoint:        "localhost:9000",
//			AccessKeyID:     "minioadmin",
//			SecretAccessKey: "minioadmin",
//			BucketName:      "querykit-snapshots",
//		},
//		Prefix: "exports/",
//	})
//	if err != nil {
//		return err
//	}
//	if err := client.EnsureBucket(ctx); err != nil {
//		return err
//	}
//	err = client.PutSnapshot(ctx, "zelda-games", body)
//
// Names map to "<Prefix><name>.json". GetSnapshot returns ErrSnapshotNotFound
// for a missing object; other failures are queryerr backend errors.
package minio
