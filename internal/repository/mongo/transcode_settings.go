package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"videoingest/internal/app"
)

const transcodeSettingsID = "transcode"

type transcodeSettingsDoc struct {
	ID           string `bson:"_id"`
	Preset       string `bson:"preset"`
	CRF          int    `bson:"crf"`
	AudioBitrate string `bson:"audioBitrate"`
	UpdatedAt    int64  `bson:"updatedAt"`
}

// TranscodeSettingsRepository persists the single operator-tunable
// transcode settings document. One logical row, upserted in place.
type TranscodeSettingsRepository struct {
	collection *mongo.Collection
}

func NewTranscodeSettingsRepository(client *mongo.Client, dbName string) *TranscodeSettingsRepository {
	return &TranscodeSettingsRepository{collection: client.Database(dbName).Collection("settings")}
}

func (r *TranscodeSettingsRepository) GetTranscodeSettings(ctx context.Context) (app.TranscodeSettings, bool, error) {
	var doc transcodeSettingsDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": transcodeSettingsID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return app.TranscodeSettings{}, false, nil
		}
		return app.TranscodeSettings{}, false, err
	}
	return fromTranscodeSettingsDoc(doc), true, nil
}

func (r *TranscodeSettingsRepository) SetTranscodeSettings(ctx context.Context, settings app.TranscodeSettings) error {
	doc := toTranscodeSettingsDoc(settings)
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": transcodeSettingsID},
		bson.M{"$set": bson.M{
			"preset":       doc.Preset,
			"crf":          doc.CRF,
			"audioBitrate": doc.AudioBitrate,
			"updatedAt":    time.Now().Unix(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func toTranscodeSettingsDoc(settings app.TranscodeSettings) transcodeSettingsDoc {
	return transcodeSettingsDoc{
		ID:           transcodeSettingsID,
		Preset:       settings.Preset,
		CRF:          settings.CRF,
		AudioBitrate: settings.AudioBitrate,
	}
}

func fromTranscodeSettingsDoc(doc transcodeSettingsDoc) app.TranscodeSettings {
	return app.TranscodeSettings{
		Preset:       doc.Preset,
		CRF:          doc.CRF,
		AudioBitrate: doc.AudioBitrate,
	}
}
