package mpris

import (
	"fmt"
	"testing"

	"github.com/Sonath21/spotify-controls/internal/domain"
	"github.com/Sonath21/spotify-controls/internal/mpris/mocks"
	"github.com/godbus/dbus/v5"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestPropertyFetcher_PlaybackStatus(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(*mocks.MockBusClient)
		expected  domain.PlaybackStatus
		expectErr bool
	}{
		{
			name: "Success",
			setupMock: func(m *mocks.MockBusClient) {
				m.EXPECT().GetProperty(gomock.Any(), testBusName, ObjectPath, PlayerInterface, PropPlaybackStatus).
					Return(dbus.MakeVariant("Playing"), nil)
			},
			expected: domain.StatusPlaying,
		},
		{
			name: "Bus error",
			setupMock: func(m *mocks.MockBusClient) {
				m.EXPECT().GetProperty(gomock.Any(), testBusName, ObjectPath, PlayerInterface, PropPlaybackStatus).
					Return(dbus.Variant{}, fmt.Errorf("call timed out"))
			},
			expected:  domain.StatusUnknown,
			expectErr: true,
		},
		{
			name: "Malformed reply",
			setupMock: func(m *mocks.MockBusClient) {
				m.EXPECT().GetProperty(gomock.Any(), testBusName, ObjectPath, PlayerInterface, PropPlaybackStatus).
					Return(dbus.MakeVariant(42), nil)
			},
			expected:  domain.StatusUnknown,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockClient := mocks.NewMockBusClient(ctrl)
			tt.setupMock(mockClient)

			f := NewPropertyFetcher(zap.NewNop(), mockClient, testBusName)
			status, err := f.PlaybackStatus(t.Context())

			if tt.expectErr && err == nil {
				t.Error("expected an error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if status != tt.expected {
				t.Errorf("status: want %v, got %v", tt.expected, status)
			}
		})
	}
}

func TestPropertyFetcher_Metadata(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(*mocks.MockBusClient)
		expected  domain.TrackMetadata
		expectErr bool
	}{
		{
			name: "Success",
			setupMock: func(m *mocks.MockBusClient) {
				m.EXPECT().GetProperty(gomock.Any(), testBusName, ObjectPath, PlayerInterface, PropMetadata).
					Return(dbus.MakeVariant(map[string]dbus.Variant{
						"xesam:artist": dbus.MakeVariant([]string{"Muse"}),
						"xesam:title":  dbus.MakeVariant("Hysteria"),
					}), nil)
			},
			expected: domain.TrackMetadata{Artist: "Muse", Title: "Hysteria"},
		},
		{
			name: "Empty mapping is success with zero fields",
			setupMock: func(m *mocks.MockBusClient) {
				m.EXPECT().GetProperty(gomock.Any(), testBusName, ObjectPath, PlayerInterface, PropMetadata).
					Return(dbus.MakeVariant(map[string]dbus.Variant{}), nil)
			},
			expected: domain.TrackMetadata{},
		},
		{
			name: "Bus error",
			setupMock: func(m *mocks.MockBusClient) {
				m.EXPECT().GetProperty(gomock.Any(), testBusName, ObjectPath, PlayerInterface, PropMetadata).
					Return(dbus.Variant{}, fmt.Errorf("player vanished mid-call"))
			},
			expectErr: true,
		},
		{
			name: "Malformed reply",
			setupMock: func(m *mocks.MockBusClient) {
				m.EXPECT().GetProperty(gomock.Any(), testBusName, ObjectPath, PlayerInterface, PropMetadata).
					Return(dbus.MakeVariant("junk"), nil)
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockClient := mocks.NewMockBusClient(ctrl)
			tt.setupMock(mockClient)

			f := NewPropertyFetcher(zap.NewNop(), mockClient, testBusName)
			track, err := f.Metadata(t.Context())

			if tt.expectErr && err == nil {
				t.Error("expected an error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if track != tt.expected {
				t.Errorf("track: want %+v, got %+v", tt.expected, track)
			}
		})
	}
}
