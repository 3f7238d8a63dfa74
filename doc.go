/*
go-zonecount counts people, or any other object class, inside fixed polygon
zones of a video.

An object detector supplies the bounding boxes of each frame, a tracker gives
every box a persistent ID and the centroid of each tracked box is tested
against the configured zones.  For every zone two counts are kept, the number
of tracks currently inside the zone and the number of distinct tracks that
have ever been inside it.

The packages are layered as follows.

  - geometry: points, boxes and the point in polygon test
  - postprocess: detections, class filtering and YOLOv8 output decoding
  - tracker: the Tracker interface, ByteTrack, an IoU tracker and the track
    registry
  - zone: zones and the occupancy and seen set counters
  - pipeline: the per frame adapter and the frame loop
  - detector: a YOLOv8 ONNX model run on OpenCV DNN
  - video: video file input and output with GoCV
  - render: drawing of the overlay with GoCV
  - report: JSON lines, SQLite, Kafka and chart outputs

This package provides configuration loading, class labels and detection
replay files.  It does not depend on OpenCV.

See example/peoplecount for a command line tool putting it all together.
*/
package zonecount
